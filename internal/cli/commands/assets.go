package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sundayschool-dev/sundayschool/internal/cli/app"
	"github.com/sundayschool-dev/sundayschool/internal/models"
	"github.com/sundayschool-dev/sundayschool/internal/store"
)

// NewAssetsCmd creates the assets command group
func NewAssetsCmd(getApp AppFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assets",
		Short: "Track church and school assets",
	}

	list := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List assets",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp()
			if err != nil {
				return err
			}
			return runAssetsList(cmd.Context(), a, cmd.OutOrStdout())
		},
	}

	var asset models.Asset
	add := &cobra.Command{
		Use:   "add",
		Short: "Register a new asset (admin only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp()
			if err != nil {
				return err
			}
			return runAssetsAdd(cmd.Context(), a, asset, cmd.OutOrStdout())
		},
	}
	add.Flags().StringVar(&asset.Code, "code", "", "Unique asset code")
	add.Flags().StringVar(&asset.Name, "name", "", "Asset name")
	add.Flags().StringVar(&asset.Category, "category", "", "Category, e.g. electronics")
	add.Flags().StringVar(&asset.Description, "description", "", "Description")
	add.Flags().StringVar(&asset.Location, "location", "", "Where the asset is kept")
	add.Flags().StringVar(&asset.Condition, "condition", "", "excellent, good, fair or poor")
	add.Flags().StringSliceVar(&asset.Tags, "tag", nil, "Tag (repeatable)")
	_ = add.MarkFlagRequired("code")
	_ = add.MarkFlagRequired("name")
	_ = add.MarkFlagRequired("category")

	cmd.AddCommand(list, add)
	return cmd
}

func runAssetsList(ctx context.Context, a *app.App, out io.Writer) error {
	if _, err := requireSession(ctx, a); err != nil {
		return err
	}

	assets, err := a.API.ListAssets(ctx)
	if err != nil {
		return err
	}

	s := store.NewAssets()
	s.Dispatch(store.LoadAssets{Assets: assets})

	if len(s.State()) == 0 {
		fmt.Fprintln(out, "No assets found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tNAME\tCATEGORY\tSTATUS\tLOCATION")
	fmt.Fprintln(w, "────\t────\t────────\t──────\t────────")
	for _, asset := range s.State() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", asset.Code, asset.Name, asset.Category, asset.Status, orDash(asset.Location))
	}
	return w.Flush()
}

func runAssetsAdd(ctx context.Context, a *app.App, asset models.Asset, out io.Writer) error {
	if err := requireAdmin(ctx, a, "/admin/assets"); err != nil {
		return err
	}

	created, err := a.API.CreateAsset(ctx, asset)
	if err != nil {
		return fmt.Errorf("failed to create asset: %w", err)
	}

	fmt.Fprintf(out, "✓ Created asset %s (%s)\n", created.Code, created.Name)
	return nil
}
