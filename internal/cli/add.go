package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mstolt/recall/internal/model"
	"github.com/mstolt/recall/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "add [text]",
		Short: "Store a memory",
		Long:  "Store a memory record. Text can be a positional arg or piped via stdin.",
		Run:   runAdd,
	}

	cmd.Flags().StringP("category", "c", "fact", "Category: core, episodic, semantic, working, fact, instruction, summary")
	cmd.Flags().IntP("importance", "i", 0, "Importance 1-10 (default: category policy)")
	cmd.Flags().StringP("tags", "t", "", "Comma-separated tags")
	cmd.Flags().String("emotion", "", "Emotional context label")
	cmd.Flags().String("source", "", "Provenance tag (default: conversation)")
	cmd.Flags().String("ttl", "", "Expiry, e.g. 7d, 24h, 30m")
	cmd.Flags().Bool("no-embed", false, "Skip the embedding service")

	RootCmd.AddCommand(cmd)
}

func runAdd(cmd *cobra.Command, args []string) {
	category, _ := cmd.Flags().GetString("category")
	importance, _ := cmd.Flags().GetInt("importance")
	tagsStr, _ := cmd.Flags().GetString("tags")
	emotion, _ := cmd.Flags().GetString("emotion")
	source, _ := cmd.Flags().GetString("source")
	ttl, _ := cmd.Flags().GetString("ttl")
	noEmbed, _ := cmd.Flags().GetBool("no-embed")

	var text string
	if len(args) > 0 {
		text = strings.Join(args, " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			text = string(b)
		}
	}
	if strings.TrimSpace(text) == "" {
		exitErr("add", fmt.Errorf("text is required (positional arg or stdin)"))
	}
	text = strings.TrimSpace(text)

	var tags []string
	if tagsStr != "" {
		for _, t := range strings.Split(tagsStr, ",") {
			t = strings.TrimSpace(t)
			if t != "" {
				tags = append(tags, t)
			}
		}
	}

	var expiresAt *time.Time
	if ttl != "" {
		d, err := parseTTL(ttl)
		if err != nil {
			exitErr("invalid ttl", err)
		}
		t := time.Now().Add(d)
		expiresAt = &t
	}

	a, err := openApp()
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	// The embedding is best-effort: an unreachable service stores the
	// record without a vector and keyword scoring still finds it.
	var embedding []float32
	if !noEmbed {
		embedding, err = a.llm.Embed(cmd.Context(), text)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: embedding unavailable, storing without vector: %v\n", err)
			embedding = nil
		}
	}

	mem, err := a.store.Add(cmd.Context(), text, embedding, store.AddParams{
		Category:         model.Category(category),
		Importance:       importance,
		Tags:             tags,
		EmotionalContext: emotion,
		Source:           source,
		ExpiresAt:        expiresAt,
	})
	if err != nil {
		exitErr("add", err)
	}

	b, _ := json.Marshal(mem)
	fmt.Println(string(b))
}

// parseTTL parses a TTL string like "7d", "24h", "30m" into a time.Duration.
var ttlRegex = regexp.MustCompile(`^(\d+)([dhms])$`)

func parseTTL(s string) (time.Duration, error) {
	m := ttlRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid format %q (use e.g. 7d, 24h, 30m, 60s)", s)
	}
	n, _ := strconv.Atoi(m[1])
	switch m[2] {
	case "d":
		return time.Duration(n) * 24 * time.Hour, nil
	case "h":
		return time.Duration(n) * time.Hour, nil
	case "m":
		return time.Duration(n) * time.Minute, nil
	case "s":
		return time.Duration(n) * time.Second, nil
	}
	return 0, fmt.Errorf("unknown unit %q", m[2])
}
