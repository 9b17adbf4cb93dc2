package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/persistorai/wdtree/client"
	"github.com/persistorai/wdtree/internal/config"
	"github.com/persistorai/wdtree/internal/db"
	"github.com/persistorai/wdtree/internal/dbpool"
)

const doctorTimeout = 15 * time.Second

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose configuration and connectivity",
		Long:  "Run diagnostic checks against the config, the query endpoint, the Wikibase API and the optional database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd)
		},
	}
}

type checkResult struct {
	Name   string
	Passed bool
	Detail string
	Hint   string
}

func runDoctor(cmd *cobra.Command) error {
	fmt.Println("\nwdtree Doctor")
	fmt.Println("=============")

	var results []checkResult

	// 1. Config.
	c, err := config.Load(flagConfig)
	if err == nil {
		err = applyFlags(cmd, c)
	}
	if err == nil {
		err = c.Validate()
	}
	if err != nil {
		results = append(results, checkResult{
			Name: "Config", Passed: false,
			Detail: err.Error(),
			Hint:   "Fix the setting or run: wdtree init --force",
		})
		printChecks(results)
		return fmt.Errorf("doctor found issues")
	}
	results = append(results, checkResult{
		Name: "Config", Passed: true,
		Detail: fmt.Sprintf("%d roots, %d properties, language %s", len(c.Roots), len(c.Properties), c.Language),
	})

	cl := newClient(c)

	// 2. Query endpoint.
	results = append(results, check("Query endpoint", c.Endpoint, "Is the endpoint URL right? Try --endpoint", func(ctx context.Context) error {
		_, err := cl.Query(ctx, "SELECT * WHERE {} LIMIT 1")
		return err
	}))

	// 3. Wikibase API.
	results = append(results, check("Wikibase API", c.APIURL, "Needed only for --claims and entity. Try --api-url", func(ctx context.Context) error {
		_, err := cl.Entities.Get(ctx, []string{"Q42"}, []string{c.Language})
		return err
	}))

	// 4. Output directory.
	results = append(results, check("Output directory", c.OutputDir, "Create it or choose another with --out", func(context.Context) error {
		if err := os.MkdirAll(c.OutputDir, 0o755); err != nil {
			return err
		}
		f, err := os.CreateTemp(c.OutputDir, ".wdtree-doctor-*")
		if err != nil {
			return err
		}
		f.Close()
		return os.Remove(f.Name())
	}))

	// 5. Database (optional).
	if c.DatabaseURL.Value() != "" {
		results = append(results, checkDatabase(c))
	}

	printChecks(results)

	for _, r := range results {
		if !r.Passed {
			return fmt.Errorf("doctor found issues")
		}
	}
	return nil
}

func check(name, detail, hint string, fn func(context.Context) error) checkResult {
	ctx, cancel := context.WithTimeout(context.Background(), doctorTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		switch {
		case client.IsRateLimited(err):
			hint = "Rate limited; wait and retry"
		case client.IsTimeout(err):
			hint = "Endpoint timed out; retry later or raise timeout"
		}
		return checkResult{Name: name, Passed: false, Detail: detail, Hint: fmt.Sprintf("%s\n   Error: %v", hint, err)}
	}
	return checkResult{Name: name, Passed: true, Detail: detail}
}

func checkDatabase(c *config.Config) checkResult {
	ctx, cancel := context.WithTimeout(context.Background(), doctorTimeout)
	defer cancel()

	pool, err := dbpool.NewPool(ctx, c.DatabaseURL.Value())
	if err != nil {
		return checkResult{Name: "Database", Passed: false, Hint: fmt.Sprintf("Check DATABASE_URL. Error: %v", err)}
	}
	defer pool.Close()

	if err := pool.HealthCheck(ctx); err != nil {
		return checkResult{Name: "Database", Passed: false, Hint: err.Error()}
	}

	applied, err := db.AppliedVersion(ctx, pool)
	if err != nil || applied < int64(db.SchemaVersion()) {
		return checkResult{
			Name: "Database", Passed: true,
			Detail: "reachable, schema not current",
			Hint:   "Migrations run on the next explore",
		}
	}

	return checkResult{Name: "Database", Passed: true, Detail: fmt.Sprintf("reachable, schema v%d", applied)}
}

func printChecks(results []checkResult) {
	fmt.Println()
	allPassed := true
	for _, r := range results {
		if r.Passed {
			if r.Detail != "" {
				fmt.Printf("✅ %s: %s\n", r.Name, r.Detail)
			} else {
				fmt.Printf("✅ %s\n", r.Name)
			}
			continue
		}

		allPassed = false
		if r.Detail != "" {
			fmt.Printf("❌ %s: %s\n", r.Name, r.Detail)
		} else {
			fmt.Printf("❌ %s\n", r.Name)
		}
		if r.Hint != "" {
			fmt.Printf("   Hint: %s\n", r.Hint)
		}
	}

	fmt.Println()
	if allPassed {
		fmt.Println("✅ All checks passed!")
	} else {
		fmt.Println("❌ Some checks failed.")
	}
}
