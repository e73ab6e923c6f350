package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	app "github.com/okian/gitstart/internal/app"
	"github.com/okian/gitstart/internal/domain/model"
	"github.com/okian/gitstart/internal/domain/ranking"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Score the difficulty of a source file or issue text",
		Long: "Score the difficulty of a source file, or of an issue when --kind=issue.\n" +
			"For issues the first line of the file is the title and the rest is the body.\n" +
			"Use - to read from stdin.",
		Args: cobra.ExactArgs(1),
		RunE: runAnalyze,
	}
	cmd.Flags().String("kind", string(model.KindCode), "Subject kind: code or issue")
	cmd.Flags().String("lang", "", "Language (defaults to the file extension)")
	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	kind, _ := cmd.Flags().GetString("kind")
	lang, _ := cmd.Flags().GetString("lang")

	req, err := analyzeRequest(cmd.InOrStdin(), args[0], kind, lang)
	if err != nil {
		return err
	}

	_, svc, err := loadService(ctx)
	if err != nil {
		return err
	}
	defer svc.Stop()

	res, err := svc.Analyze(ctx, req)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), res)
}

// analyzeRequest reads path (or stdin for "-") into an analyze request.
func analyzeRequest(stdin io.Reader, path, kind, lang string) (app.AnalyzeRequest, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return app.AnalyzeRequest{}, fmt.Errorf("read %s: %w", path, err)
	}

	req := app.AnalyzeRequest{Kind: model.Kind(strings.ToLower(kind)), ID: path, Language: lang}
	switch req.Kind {
	case model.KindIssue:
		title, body, _ := strings.Cut(string(data), "\n")
		req.Title = strings.TrimSpace(title)
		req.Body = strings.TrimSpace(body)
	case model.KindCode:
		req.Content = string(data)
		if req.Language == "" && path != "-" {
			req.Language = ranking.CanonicalLanguage(strings.TrimPrefix(filepath.Ext(path), "."))
		}
	default:
		return app.AnalyzeRequest{}, fmt.Errorf("%w: unknown kind %q", model.ErrInvalidInput, kind)
	}
	return req, nil
}

func recommendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend [issue-id...]",
		Short: "Rank catalog issues for a contributor profile",
		Long:  "Rank catalog issues for a contributor profile. With no issue IDs every catalog issue is considered.",
		RunE:  runRecommend,
	}
	cmd.Flags().String("profile", "", "Contributor profile ID (required)")
	cmd.Flags().Int("limit", 0, "Maximum number of items (0 = all)")
	_ = cmd.MarkFlagRequired("profile")
	return cmd
}

func runRecommend(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	profile, _ := cmd.Flags().GetString("profile")
	limit, _ := cmd.Flags().GetInt("limit")

	_, svc, err := loadService(ctx)
	if err != nil {
		return err
	}
	defer svc.Stop()

	rec, err := svc.Recommend(ctx, app.RecommendRequest{ProfileID: profile, IssueIDs: args, Limit: limit})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), rec)
}

func beginnerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "beginner",
		Short: "List beginner friendly catalog issues, easiest first",
		Args:  cobra.NoArgs,
		RunE:  runBeginner,
	}
	cmd.Flags().Int("limit", app.DefaultBeginnerLimit, "Maximum number of issues")
	return cmd
}

func runBeginner(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	limit, _ := cmd.Flags().GetInt("limit")

	_, svc, err := loadService(ctx)
	if err != nil {
		return err
	}
	defer svc.Stop()

	list, err := svc.BeginnerIssues(ctx, limit)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), list)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
