package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-ledger/internal/common"
)

func setupCommandTest(t *testing.T) string {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	viper.Set("database.path", filepath.Join(dir, "spice.db"))
	return dir
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeStatement(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestUploadCommand(t *testing.T) {
	dir := setupCommandTest(t)
	path := writeStatement(t, dir, "may.csv",
		"Date,Amount,Description\n2025-05-01,-12.99,NETFLIX.COM\n2025-05-02,-40.00,SHELL OIL\n")

	out, err := execute(t, uploadCmd(), path)
	require.NoError(t, err)
	assert.Contains(t, out, common.MsgUploadSuccess)

	out, err = execute(t, stagingCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "New:        2")

	out, err = execute(t, runsCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "may.csv")
	assert.Contains(t, out, "success")
}

func TestUploadCommand_ErrorStatus(t *testing.T) {
	dir := setupCommandTest(t)
	path := writeStatement(t, dir, "bad.csv", "When,Amount,Description\n2025-05-01,-1,A\n")

	out, err := execute(t, uploadCmd(), path)
	require.Error(t, err)
	assert.Contains(t, out, common.MsgColumnNotFound)

	out, err = execute(t, runsCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "error")
}

func TestUploadCommand_UnknownFormat(t *testing.T) {
	dir := setupCommandTest(t)
	path := writeStatement(t, dir, "may.csv", "Date,Amount,Description\n")

	_, err := execute(t, uploadCmd(), "--format", "pdf", path)
	assert.Error(t, err)
}

func TestCategoriesCommands(t *testing.T) {
	setupCommandTest(t)

	out, err := execute(t, categoriesCmd(), "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "Category taxonomy seeded")

	out, err = execute(t, categoriesCmd(), "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing seeded")

	out, err = execute(t, categoriesCmd(), "list")
	require.NoError(t, err)
	assert.Contains(t, out, " - ")
}

func TestClassifyCommand_MissingAPIKey(t *testing.T) {
	setupCommandTest(t)
	viper.Set("llm.provider", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := execute(t, classifyCmd())
	require.ErrorIs(t, err, common.ErrMissingConfig)
	assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")
}

func TestMerchantsCommand_Empty(t *testing.T) {
	setupCommandTest(t)

	out, err := execute(t, merchantsCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "No merchants yet")
}
