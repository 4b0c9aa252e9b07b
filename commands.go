package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func printJSON(out io.Writer, value interface{}) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func parseStudentId(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid student id %q", raw)
	}
	return id, nil
}

// parseSelection reads a "course[:shift]" argument.
func parseSelection(raw string) (CourseSelection, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)

	courseId, err := strconv.Atoi(parts[0])
	if err != nil {
		return CourseSelection{}, fmt.Errorf("invalid course %q", raw)
	}
	selection := CourseSelection{CourseId: &courseId}

	if len(parts) == 2 {
		shiftId, err := strconv.Atoi(parts[1])
		if err != nil {
			return CourseSelection{}, fmt.Errorf("invalid shift in %q", raw)
		}
		selection.ShiftId = &shiftId
	}
	return selection, nil
}

func newReconcileCommand(a *app) *cobra.Command {
	var (
		studentRaw         string
		courses            []string
		detectShiftChanges bool
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Set a student's courses to exactly the given course[:shift] list",
		RunE: func(cmd *cobra.Command, args []string) error {
			studentId, err := parseStudentId(studentRaw)
			if err != nil {
				return err
			}

			desired := make([]CourseSelection, 0, len(courses))
			for _, raw := range courses {
				selection, err := parseSelection(raw)
				if err != nil {
					return err
				}
				desired = append(desired, selection)
			}

			reconciler := NewReconciler(a.api, DiffOptions{DetectShiftChanges: detectShiftChanges}, a.directory.Forget)
			result, err := reconciler.ReconcileStudent(cmd.Context(), studentId, desired, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "Enrollment of student %d updated\n", studentId)
			})
			if result != nil {
				log.Debug().Str("phase", string(result.Phase)).Int("add", len(result.ToAdd)).Int("drop", len(result.ToDelete)).Msg("Reconcile Result")
			}
			return err
		},
	}

	cmd.Flags().StringVar(&studentRaw, "student", "", "student id")
	cmd.Flags().StringArrayVar(&courses, "course", nil, "desired course as course[:shift], repeatable")
	cmd.Flags().BoolVar(&detectShiftChanges, "detect-shift-changes", false, "treat a shift change as drop + add")
	_ = cmd.MarkFlagRequired("student")
	return cmd
}

func newStudentCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "student <id>",
		Short: "Show a student and their enrolled courses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			studentId, err := parseStudentId(args[0])
			if err != nil {
				return err
			}
			student, err := a.directory.GetStudentCached(cmd.Context(), studentId)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), student)
		},
	}
}

func newSearchCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Find students by name, email or national ID",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			students, err := a.directory.ListStudentsCached(cmd.Context())
			if err != nil {
				return err
			}
			for _, student := range FilterStudents(students, strings.Join(args, " ")) {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%s\n", student.Id, student.NationalId, student.Name, student.Email)
			}
			return nil
		},
	}
}

func newFeesCommand(a *app) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "fees",
		Short: "List the school's fees",
		RunE: func(cmd *cobra.Command, args []string) error {
			if refresh {
				if err := a.cache.Invalidate(feesKey); err != nil {
					return errors.Wrap(err, "failed to refresh fees")
				}
			}
			fees, err := a.billing.FeesCached(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), fees)
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore the cached list")
	return cmd
}

// applyPeriodFlags moves the filter store to the period given on the command line, if any.
func applyPeriodFlags(cmd *cobra.Command, filters *FilterStore, month string, week int) error {
	switch {
	case month != "":
		filter, err := ParseFilter(month, week)
		if err != nil {
			return err
		}
		filters.Set(filter)
	case cmd.Flags().Changed("week"):
		current := filters.Get()
		if current.IsZero() {
			current = CurrentPeriod(time.Now())
		}
		filter, err := current.WithWeek(week)
		if err != nil {
			return err
		}
		filters.Set(filter)
	}
	return nil
}

func newTransactionsCommand(a *app) *cobra.Command {
	var (
		pending bool
		all     bool
		month   string
		week    int
	)
	cmd := &cobra.Command{
		Use:   "transactions <student id>",
		Short: "List a student's billing transactions for the selected period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			studentId, err := parseStudentId(args[0])
			if err != nil {
				return err
			}
			if err := applyPeriodFlags(cmd, a.filters, month, week); err != nil {
				return err
			}

			var transactions []Transaction
			if all {
				transactions, err = a.billing.TransactionsCached(cmd.Context(), studentId)
			} else {
				transactions, err = a.billing.TransactionsInPeriod(cmd.Context(), studentId)
			}
			if err != nil {
				return err
			}
			if pending {
				transactions = Pending(transactions)
			}
			return printJSON(cmd.OutOrStdout(), TransactionRows(transactions))
		},
	}
	cmd.Flags().BoolVar(&pending, "pending", false, "only transactions still open for payment")
	cmd.Flags().BoolVar(&all, "all", false, "ignore the selected period")
	cmd.Flags().StringVar(&month, "month", "", "select a period month as YYYY-MM, kept for later commands")
	cmd.Flags().IntVar(&week, "week", 0, "select a week (1-5) of the period month, 0 for all of it")
	return cmd
}

func newWhoAmICommand(a *app) *cobra.Command {
	var watch time.Duration
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show who the configured API key belongs to",
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch > 0 {
				a.detachCache()
				err := a.session.Poll(cmd.Context(), watch, func(identity *WhoAmI) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", identity.Name, identity.Username)
				})
				if errors.Is(err, cmd.Context().Err()) {
					return nil
				}
				return err
			}

			identity, err := a.session.WhoAmI(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", identity.Name, identity.Username)
			return nil
		},
	}
	cmd.Flags().DurationVar(&watch, "watch", 0, "keep checking at this interval")
	return cmd
}

func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget everything cached for this session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Session cleared")
			return nil
		},
	}
}

func newValidateStudentCommand() *cobra.Command {
	var input StudentInput
	cmd := &cobra.Command{
		Use:   "validate-student",
		Short: "Check and normalize a student's name, national ID, phone and email",
		// no API access needed
		PersistentPreRunE:  func(cmd *cobra.Command, args []string) error { return nil },
		PersistentPostRun: func(cmd *cobra.Command, args []string) {},
		RunE: func(cmd *cobra.Command, args []string) error {
			normalized, err := ValidateStudentInput(input)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), normalized)
		},
	}
	cmd.Flags().StringVar(&input.Name, "name", "", "full name")
	cmd.Flags().StringVar(&input.NationalId, "national-id", "", "RUT")
	cmd.Flags().StringVar(&input.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&input.Email, "email", "", "email address")
	return cmd
}
