package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/kinface/internal/domain"
)

var (
	renameName     string
	renameRelation string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all enrolled identities",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		identities, err := app.identities.List(cmd.Context())
		if err != nil {
			return err
		}
		printIdentities(cmd.OutOrStdout(), identities)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one identity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		identity, err := app.identities.Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		printIdentity(cmd.OutOrStdout(), identity)
		return nil
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename <id>",
	Short: "Change the name or relation of an identity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		current, err := app.identities.Get(cmd.Context(), id)
		if err != nil {
			return err
		}

		name, relation := current.Name, current.Relation
		if cmd.Flags().Changed("name") {
			name = renameName
		}
		if cmd.Flags().Changed("relation") {
			relation = renameRelation
		}

		if err := app.identities.Update(cmd.Context(), id, name, relation); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated identity %d\n", id)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete an identity and its face image",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		if err := app.identities.Delete(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted identity %d\n", id)
		return nil
	},
}

func init() {
	renameCmd.Flags().StringVar(&renameName, "name", "", "New name")
	renameCmd.Flags().StringVar(&renameRelation, "relation", "", "New relation (may be empty)")

	rootCmd.AddCommand(listCmd, showCmd, renameCmd, deleteCmd)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid identity id %q", arg)
	}
	return id, nil
}

func printIdentities(out io.Writer, identities []domain.IdentitySummary) {
	if len(identities) == 0 {
		fmt.Fprintln(out, "No identities found in database.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tRELATION\tIMAGE")
	fmt.Fprintln(w, "--\t----\t--------\t-----")
	for _, i := range identities {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i.ID, i.Name, i.Relation, i.ImagePath)
	}
	w.Flush()
}

func printIdentity(out io.Writer, identity *domain.Identity) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%d\n", identity.ID)
	fmt.Fprintf(w, "Name:\t%s\n", identity.Name)
	fmt.Fprintf(w, "Relation:\t%s\n", identity.Relation)
	fmt.Fprintf(w, "Image:\t%s\n", identity.ImagePath)
	if identity.Corrupt {
		fmt.Fprintf(w, "Embedding:\tcorrupt, excluded from matching\n")
	} else {
		fmt.Fprintf(w, "Embedding:\t%d floats\n", len(identity.Embedding))
	}
	fmt.Fprintf(w, "Created:\t%s\n", identity.CreatedAt.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(w, "Updated:\t%s\n", identity.UpdatedAt.Local().Format("2006-01-02 15:04"))
	w.Flush()
}
