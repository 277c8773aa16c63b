package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/olekukonko/tablewriter"

	"github.com/triagekit/emailtriage/internal/model"
)

// Table writes data as a formatted table to stdout.
func Table(data interface{}) error {
	return TableTo(os.Stdout, data)
}

// TableTo writes data as a formatted table to the given writer.
func TableTo(w io.Writer, data interface{}) error {
	switch v := data.(type) {
	case []model.Task:
		return tasksTable(w, v)
	case *model.Task:
		return taskDetail(w, v)
	case []model.Classification:
		return classificationsTable(w, v)
	case model.RunningMetrics:
		return accuracyTable(w, v)
	case []model.Resolution:
		return resolutionsTable(w, v)
	default:
		return fmt.Errorf("unsupported data type for table output: %T", data)
	}
}

func tasksTable(w io.Writer, tasks []model.Task) error {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCATEGORY\tPRIORITY\tSTATUS\tTITLE")
	fmt.Fprintln(tw, "--\t--------\t--------\t------\t-----")

	for _, t := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			t.ID[:8], t.Category, t.Priority, t.Status, truncate(t.Title, 50))
	}

	return tw.Flush()
}

func taskDetail(w io.Writer, t *model.Task) error {
	fmt.Fprintf(w, "ID:          %s\n", t.ID)
	fmt.Fprintf(w, "Category:    %s\n", t.Category)
	fmt.Fprintf(w, "Priority:    %s\n", t.Priority)
	fmt.Fprintf(w, "Status:      %s\n", t.Status)
	fmt.Fprintf(w, "Title:       %s\n", t.Title)
	fmt.Fprintf(w, "Description: %s\n", t.Description)
	if len(t.Metadata.Links) > 0 {
		fmt.Fprintf(w, "Links:       %s\n", strings.Join(t.Metadata.Links, ", "))
	}
	if t.Metadata.DueDate != "" {
		fmt.Fprintf(w, "Due:         %s\n", t.Metadata.DueDate)
	}
	if t.Resolution != nil {
		fmt.Fprintf(w, "Resolved:    %s (%s)\n", t.Resolution.ResolutionType, t.Resolution.ResolvedAt.Format("Jan 02, 2006"))
	}
	return nil
}

func classificationsTable(w io.Writer, classifications []model.Classification) error {
	if len(classifications) == 0 {
		fmt.Fprintln(w, "No classifications found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MESSAGE\tCATEGORY\tCONFIDENCE\tSTATUS")
	fmt.Fprintln(tw, "-------\t--------\t----------\t------")

	for _, c := range classifications {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\n", truncate(c.MessageID, 20), c.Category, c.Confidence, c.Status)
	}

	return tw.Flush()
}

// accuracyTable renders the Accuracy Ledger's rolling per-category
// precision/recall/F1, using tablewriter for a richer box-drawn grid
// than the plain tabwriter the rest of this package uses.
func accuracyTable(w io.Writer, m model.RunningMetrics) error {
	categories := make([]string, 0, len(m.PerCategory))
	for cat := range m.PerCategory {
		categories = append(categories, string(cat))
	}
	sort.Strings(categories)

	table := tablewriter.NewWriter(w)
	table.Header("Category", "TP", "FP", "FN", "Precision", "Recall", "F1")

	for _, cat := range categories {
		cm := m.PerCategory[model.Category(cat)]
		table.Append([]string{
			cat,
			fmt.Sprintf("%d", cm.TP),
			fmt.Sprintf("%d", cm.FP),
			fmt.Sprintf("%d", cm.FN),
			fmt.Sprintf("%.2f", cm.Precision),
			fmt.Sprintf("%.2f", cm.Recall),
			fmt.Sprintf("%.2f", cm.F1),
		})
	}
	if err := table.Render(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nOverall accuracy: %.1f%%\n", m.OverallAccuracy*100)
	return nil
}

func resolutionsTable(w io.Writer, resolutions []model.Resolution) error {
	if len(resolutions) == 0 {
		fmt.Fprintln(w, "No resolutions found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TASK\tTYPE\tAGE (DAYS)\tRESOLVED\tNOTES")
	fmt.Fprintln(tw, "----\t----\t----------\t--------\t-----")

	for _, r := range resolutions {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			truncate(r.TaskID, 12), r.ResolutionType, r.TaskAgeDays,
			r.ResolvedAt.Format("Jan 02"), truncate(r.ResolutionNotes, 40))
	}

	return tw.Flush()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
