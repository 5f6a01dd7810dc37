package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"interview-portal-service/internal/config"
	"interview-portal-service/internal/domain"
	"interview-portal-service/internal/infra/memory"
	"interview-portal-service/internal/infra/postgres"
)

// NewSeedCmd loads the demo catalog and candidates into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the database with demo positions and candidates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath)
		},
	}
}

func runSeed(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()
	store := postgres.NewStore(db)

	for _, sp := range demoPositions() {
		pos := domain.Position{Name: sp.name, Active: true}
		if err := store.CreatePosition(ctx, &pos, nil); err != nil {
			return err
		}
		for i := range sp.topics {
			if err := store.CreateTopic(ctx, pos.ID, &sp.topics[i]); err != nil {
				return err
			}
		}
		log.Printf("seeded position %q (id=%d, %d topics)", pos.Name, pos.ID, len(sp.topics))
	}

	for _, c := range demoCandidates() {
		if err := store.CreateCandidate(ctx, c); err != nil {
			return err
		}
		log.Printf("seeded candidate %s (%s)", c.FullName(), c.ID)
	}
	return nil
}

// seedDemoCatalog fills the in-memory store so the server is usable
// without Postgres.
func seedDemoCatalog(ctx context.Context, store *memory.Store) {
	for _, sp := range demoPositions() {
		pos := domain.Position{Name: sp.name, Active: true}
		if err := store.CreatePosition(ctx, &pos, nil); err != nil {
			log.Printf("seed position %q: %v", sp.name, err)
			continue
		}
		for i := range sp.topics {
			if err := store.CreateTopic(ctx, pos.ID, &sp.topics[i]); err != nil {
				log.Printf("seed topic %q: %v", sp.topics[i].Name, err)
			}
		}
	}
	for _, c := range demoCandidates() {
		store.AddCandidate(c)
		log.Printf("demo candidate %s: %s", c.FullName(), c.ID)
	}
}

type seedPosition struct {
	name   string
	topics []domain.Topic
}

func demoPositions() []seedPosition {
	return []seedPosition{
		{
			name: "Software Engineer",
			topics: []domain.Topic{
				{
					Name:        "Algorithms",
					Description: "Complexity, data structures, and classic techniques",
					Questions: []domain.Question{
						question("What is the average-case time complexity of binary search?", domain.DifficultyEasy,
							answer("O(log n)", true), answer("O(n)", false), answer("O(n log n)", false), answer("O(1)", false)),
						question("Which data structure gives amortized O(1) insertion at both ends?", domain.DifficultyMedium,
							answer("Deque", true), answer("Binary heap", false), answer("Sorted array", false), answer("BST", false)),
						question("Which algorithm finds shortest paths with non-negative edge weights?", domain.DifficultyMedium,
							answer("Dijkstra", true), answer("DFS", false), answer("Kruskal", false), answer("Quickselect", false)),
						question("What is the worst-case complexity of quicksort?", domain.DifficultyEasy,
							answer("O(n^2)", true), answer("O(n log n)", false), answer("O(log n)", false), answer("O(n)", false)),
						question("A hash table resolves collisions with chaining. Lookup in the worst case is?", domain.DifficultyHard,
							answer("O(n)", true), answer("O(1)", false), answer("O(log n)", false), answer("O(n log n)", false)),
						question("Which traversal of a BST yields sorted order?", domain.DifficultyEasy,
							answer("In-order", true), answer("Pre-order", false), answer("Post-order", false), answer("Level-order", false)),
						question("Topological sort applies to which kind of graph?", domain.DifficultyMedium,
							answer("Directed acyclic", true), answer("Undirected", false), answer("Complete", false), answer("Bipartite only", false)),
						question("Which technique trades memory for speed by storing subproblem results?", domain.DifficultyEasy,
							answer("Dynamic programming", true), answer("Backtracking", false), answer("Greedy choice", false), answer("Branch and bound", false)),
						question("What does a Bloom filter never produce?", domain.DifficultyHard,
							answer("False negatives", true), answer("False positives", false), answer("Hash collisions", false), answer("Duplicates", false)),
						question("Union-Find with path compression and union by rank runs per op in?", domain.DifficultyHard,
							answer("Near O(1) (inverse Ackermann)", true), answer("O(log n)", false), answer("O(n)", false), answer("O(sqrt n)", false)),
					},
				},
				{
					Name:        "Databases",
					Description: "SQL, transactions, and indexing",
					Questions: []domain.Question{
						question("Which isolation level prevents dirty reads but allows non-repeatable reads?", domain.DifficultyMedium,
							answer("Read committed", true), answer("Read uncommitted", false), answer("Serializable", false), answer("Snapshot", false)),
						question("A B-tree index speeds up which access pattern best?", domain.DifficultyEasy,
							answer("Range scans", true), answer("Full-text search", false), answer("Random UUID lookups only", false), answer("Bulk deletes", false)),
						question("What does the A in ACID stand for?", domain.DifficultyEasy,
							answer("Atomicity", true), answer("Availability", false), answer("Aggregation", false), answer("Affinity", false)),
						question("Which JOIN returns all rows from the left table regardless of matches?", domain.DifficultyEasy,
							answer("LEFT OUTER JOIN", true), answer("INNER JOIN", false), answer("CROSS JOIN", false), answer("RIGHT OUTER JOIN", false)),
						question("A covering index is one that", domain.DifficultyMedium,
							answer("contains every column the query needs", true), answer("spans all tables", false), answer("is clustered", false), answer("includes a WHERE clause", false)),
						question("Which statement releases locks held by a transaction?", domain.DifficultyEasy,
							answer("COMMIT", true), answer("SELECT", false), answer("EXPLAIN", false), answer("VACUUM", false)),
						question("Normalizing to third normal form primarily removes", domain.DifficultyMedium,
							answer("transitive dependencies", true), answer("foreign keys", false), answer("indexes", false), answer("views", false)),
						question("Which Postgres feature enforces a 0-100 range on a column?", domain.DifficultyEasy,
							answer("CHECK constraint", true), answer("Trigger only", false), answer("Sequence", false), answer("Rule", false)),
						question("An index on (a, b) is generally NOT usable for", domain.DifficultyHard,
							answer("filters on b alone", true), answer("filters on a alone", false), answer("filters on a and b", false), answer("ordering by a", false)),
						question("MVCC avoids read locks by", domain.DifficultyHard,
							answer("keeping multiple row versions", true), answer("escalating to table locks", false), answer("serializing writers", false), answer("caching query plans", false)),
					},
				},
			},
		},
		{
			name: "Product Manager",
			topics: []domain.Topic{
				{
					Name:        "Product Discovery",
					Description: "Finding and validating what to build",
					Questions: []domain.Question{
						question("What is the main goal of a problem interview?", domain.DifficultyEasy,
							answer("Validate the problem exists", true), answer("Sell the product", false), answer("Close the candidate", false), answer("Estimate cost", false)),
						question("An MVP primarily exists to", domain.DifficultyEasy,
							answer("test riskiest assumptions cheaply", true), answer("maximize launch features", false), answer("impress investors", false), answer("satisfy all personas", false)),
						question("Which metric pairing guards against gaming a single KPI?", domain.DifficultyMedium,
							answer("North star plus counter-metric", true), answer("Two vanity metrics", false), answer("Revenue only", false), answer("NPS only", false)),
						question("RICE prioritization scores reach, impact, confidence, and", domain.DifficultyEasy,
							answer("effort", true), answer("elegance", false), answer("engagement", false), answer("expense", false)),
						question("Cohort retention curves flattening above zero indicates", domain.DifficultyMedium,
							answer("product-market fit signal", true), answer("churn spiral", false), answer("seasonality", false), answer("sampling error", false)),
						question("A/B test significance is undermined most by", domain.DifficultyHard,
							answer("peeking and stopping early", true), answer("large samples", false), answer("random assignment", false), answer("pre-registered metrics", false)),
						question("Jobs-to-be-done framing focuses on", domain.DifficultyEasy,
							answer("the progress a user seeks", true), answer("feature checklists", false), answer("competitor parity", false), answer("pricing tiers", false)),
						question("Which artifact best aligns engineering and business on scope?", domain.DifficultyMedium,
							answer("A one-page PRD with non-goals", true), answer("A Gantt chart", false), answer("A pitch deck", false), answer("A press release only", false)),
						question("Opportunity-solution trees help teams avoid", domain.DifficultyMedium,
							answer("jumping to a single solution", true), answer("talking to users", false), answer("measuring outcomes", false), answer("shipping iteratively", false)),
						question("A painted-door experiment measures", domain.DifficultyHard,
							answer("demand before building", true), answer("latency budgets", false), answer("churn drivers", false), answer("support load", false)),
					},
				},
			},
		},
	}
}

func demoCandidates() []domain.Candidate {
	return []domain.Candidate{
		{ID: uuid.NewString(), FirstName: "Ada", LastName: "Nguyen", Email: "ada.nguyen@example.com"},
		{ID: uuid.NewString(), FirstName: "Tomas", LastName: "Rivera", Email: "tomas.rivera@example.com"},
		{ID: uuid.NewString(), FirstName: "Priya", LastName: "Shah", Email: "priya.shah@example.com"},
	}
}

func question(text string, difficulty domain.Difficulty, answers ...domain.Answer) domain.Question {
	return domain.Question{Text: text, Difficulty: difficulty, Answers: answers}
}

func answer(text string, correct bool) domain.Answer {
	return domain.Answer{Text: text, Correct: correct}
}
