package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/model"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Inspect the category taxonomy",
		Long:  `List the categories and subcategories the classifier may choose from, or seed them into an empty database.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(seedCategoriesCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all category labels",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			categories, err := store.GetTaxonomy(ctx)
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}

			if len(categories) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.InfoStyle.Render("No categories found. Use 'spice categories seed' to load them."))
				return nil
			}

			var rows [][]string
			for _, cat := range categories {
				for _, sub := range cat.Subcategories {
					rows = append(rows, []string{
						strconv.FormatInt(sub.ID, 10),
						model.CategoryLabel(cat.Name, sub.Name),
					})
				}
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable([]string{"ID", "Label"}, rows))
			return nil
		},
	}
}

func seedCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the taxonomy into an empty database",
		Long: `Load categories from taxonomy.path (or the built-in taxonomy) into the
database. Nothing is written when categories already exist.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := storageWithoutSeed(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			seeded, err := seedTaxonomy(ctx, store)
			if err != nil {
				return err
			}
			if !seeded {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Categories already exist; nothing seeded"))
				return nil
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Category taxonomy seeded"))
			return nil
		},
	}
}
