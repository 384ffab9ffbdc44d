package store_test

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/conceptmap/internal/db"
	"github.com/persistorai/conceptmap/internal/db/migrations"
	"github.com/persistorai/conceptmap/internal/dbpool"
	"github.com/persistorai/conceptmap/internal/models"
	"github.com/persistorai/conceptmap/internal/store"
)

// testEnv holds shared test infrastructure (single pool across all tests).
type testEnv struct {
	pool *dbpool.Pool
	log  *logrus.Logger
}

var (
	sharedEnv  *testEnv
	sharedOnce sync.Once
	sharedErr  error
)

func getTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	sharedOnce.Do(func() {
		ctx := context.Background()

		log := logrus.New()
		log.SetLevel(logrus.ErrorLevel)

		pool, err := dbpool.NewPool(ctx, dbURL, 8)
		if err != nil {
			sharedErr = err
			return
		}

		if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
			sharedErr = err
			return
		}

		sharedEnv = &testEnv{pool: pool, log: log}
	})

	if sharedErr != nil {
		t.Fatalf("setting up test DB: %v", sharedErr)
	}

	return sharedEnv
}

// testNames hands out identifiers unique to one test and removes every row
// they touched when the test ends.
type testNames struct {
	prefix string
}

func (n testNames) article(s string) string { return n.prefix + "-" + s }
func (n testNames) entity(s string) string  { return s + " " + n.prefix }

// setupTestBase returns a Base plus a name generator scoped to the test.
func setupTestBase(t *testing.T) (store.Base, testNames) {
	t.Helper()

	env := getTestEnv(t)
	names := testNames{prefix: "t" + strings.ReplaceAll(uuid.NewString()[:13], "-", "")}

	t.Cleanup(func() {
		ctx := context.Background()
		like := names.prefix + "%"
		suffix := "% " + names.prefix

		// Delete in dependency order: joins, relationships, articles, entities.
		env.pool.Exec(ctx, "DELETE FROM article_concept WHERE article_id LIKE $1", like)        //nolint:errcheck // best-effort cleanup
		env.pool.Exec(ctx, "DELETE FROM article_related_field WHERE article_id LIKE $1", like)  //nolint:errcheck // best-effort cleanup
		env.pool.Exec(ctx, `DELETE FROM concept_relationship WHERE concept1_id IN
			(SELECT concept_id FROM concept WHERE concept_name LIKE $1)`, suffix) //nolint:errcheck // best-effort cleanup
		env.pool.Exec(ctx, "DELETE FROM article WHERE article_id LIKE $1", like)             //nolint:errcheck // best-effort cleanup
		env.pool.Exec(ctx, "DELETE FROM concept WHERE concept_name LIKE $1", suffix)         //nolint:errcheck // best-effort cleanup
		env.pool.Exec(ctx, "DELETE FROM study_field WHERE field_name LIKE $1", suffix)       //nolint:errcheck // best-effort cleanup
	})

	return store.Base{Pool: env.pool, Log: env.log}, names
}

// ingest builds an IngestedArticle whose names are all scoped to the test.
func ingest(n testNames, id string, fields []string, edges [][3]string) *models.IngestedArticle {
	in := &models.IngestedArticle{
		Article: models.Article{
			ID:         n.article(id),
			Title:      "Title " + id,
			Content:    "Content of " + id,
			SourceLink: "https://medium.com/p/" + id,
		},
		Diagram: "graph TD\n  A-->B",
	}

	for _, f := range fields {
		in.Fields = append(in.Fields, n.entity(f))
	}

	for _, e := range edges {
		in.Graph = append(in.Graph, models.ConceptEdge{
			ConceptA:    n.entity(e[0]),
			ConceptB:    n.entity(e[1]),
			Description: e[2],
		})
	}

	return in
}
