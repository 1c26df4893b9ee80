package engine

import (
	"context"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// Classifier assigns a merchant and a category label to each row of a batch.
// Rows it cannot place should come back as Unknown / Uncategorised rather than
// being omitted; omitted rows simply stay staged.
type Classifier interface {
	ClassifyBatch(ctx context.Context, req model.BatchRequest) ([]model.ClassifiedRow, error)
}

// Progress receives batch lifecycle events. Implementations must be cheap;
// they are called on the orchestrator goroutine.
type Progress interface {
	BatchStarted(index, total, size int)
	BatchFinished(index, committed int, err error)
}

type noopProgress struct{}

func (noopProgress) BatchStarted(int, int, int)     {}
func (noopProgress) BatchFinished(int, int, error) {}
