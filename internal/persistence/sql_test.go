package persistence

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"

	"seoforge/internal/core"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	store, err := Open(DialectSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if err := NewMigrationManager(store).Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	return store
}

func testProduct() core.ProductConfig {
	return core.ProductConfig{
		ID:              "prod-1",
		Name:            "Acme PM",
		Description:     "Project management for small teams",
		URL:             "https://acme.example",
		LanguageCode:    "en",
		CountryCode:     "us",
		TargetAudiences: []string{"founders", "team leads"},
		Style:           core.StylePreferences{Tone: "friendly", InternalLinks: 3, IncludeCTA: true},
		ImageStyle:      core.ImageStyleIllustration,
		BrandColor:      "#ff6600",
		Watermark:       true,
		LinkSource:      core.LinkSourceDatabase,
	}
}

func TestLoadArticleRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	product := testProduct()
	if err := store.CreateProduct(ctx, product); err != nil {
		t.Fatalf("CreateProduct failed: %v", err)
	}

	volume := 5400.0
	req := core.ArticleRequest{
		ID:           "art-1",
		ProductID:    product.ID,
		Keyword:      "best project management tools",
		ContentType:  core.ContentTypeListicle,
		SearchVolume: &volume,
		TargetLength: core.LengthLong,
	}
	if err := store.CreateArticle(ctx, req); err != nil {
		t.Fatalf("CreateArticle failed: %v", err)
	}

	gotReq, gotProduct, err := store.LoadArticle(ctx, "art-1")
	if err != nil {
		t.Fatalf("LoadArticle failed: %v", err)
	}
	if diff := cmp.Diff(req, gotReq); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
	product.ReferenceURLs = []string{}
	product.SitemapPages = []core.LinkCandidate{}
	if diff := cmp.Diff(product, gotProduct); diff != "" {
		t.Errorf("product mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadArticleNotFound(t *testing.T) {
	store := newTestStore(t)

	_, _, err := store.LoadArticle(context.Background(), "missing")
	if !errors.Is(err, ErrArticleNotFound) {
		t.Errorf("Expected ErrArticleNotFound, got %v", err)
	}
}

func TestCreateArticleRequiresProduct(t *testing.T) {
	store := newTestStore(t)

	err := store.CreateArticle(context.Background(), core.ArticleRequest{
		ID: "a", ProductID: "nope", Keyword: "k", ContentType: core.ContentTypeGuide,
	})
	if !errors.Is(err, ErrProductNotFound) {
		t.Errorf("Expected ErrProductNotFound, got %v", err)
	}
}

func TestLoadLinkCandidates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateProduct(ctx, testProduct()); err != nil {
		t.Fatalf("CreateProduct failed: %v", err)
	}
	for _, id := range []string{"current", "old", "new", "draft"} {
		err := store.CreateArticle(ctx, core.ArticleRequest{
			ID: id, ProductID: "prod-1", Keyword: id + " keyword", Title: id + " title", ContentType: core.ContentTypeGuide,
		})
		if err != nil {
			t.Fatalf("CreateArticle %s failed: %v", id, err)
		}
	}

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mustPublish := func(id, url string, at time.Time) {
		if err := store.RecordPublication(ctx, id, url, at); err != nil {
			t.Fatalf("RecordPublication failed: %v", err)
		}
	}
	mustPublish("old", "https://acme.example/old", base)
	mustPublish("new", "https://acme.example/new", base.Add(48*time.Hour))
	mustPublish("new", "https://medium.example/new", base.Add(24*time.Hour))
	mustPublish("current", "https://acme.example/current", base.Add(72*time.Hour))

	got, err := store.LoadLinkCandidates(ctx, "prod-1", "current", 20)
	if err != nil {
		t.Fatalf("LoadLinkCandidates failed: %v", err)
	}

	want := []core.LinkCandidate{
		{Title: "new title", Keyword: "new keyword", URL: "https://acme.example/new"},
		{Title: "old title", Keyword: "old keyword", URL: "https://acme.example/old"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("candidates mismatch (-want +got):\n%s", diff)
	}

	limited, err := store.LoadLinkCandidates(ctx, "prod-1", "current", 1)
	if err != nil {
		t.Fatalf("LoadLinkCandidates failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("Expected limit to cap results, got %d", len(limited))
	}
}

func TestSaveGeneratedArticle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateProduct(ctx, testProduct()); err != nil {
		t.Fatalf("CreateProduct failed: %v", err)
	}
	if err := store.CreateArticle(ctx, core.ArticleRequest{ID: "a1", ProductID: "prod-1", Keyword: "k", ContentType: core.ContentTypeGuide}); err != nil {
		t.Fatalf("CreateArticle failed: %v", err)
	}

	article := core.GeneratedArticle{Title: "T", Content: "# T\n\nbody", MetaDescription: "m", Slug: "t"}
	if err := store.SaveGeneratedArticle(ctx, "a1", article, nil); err != nil {
		t.Fatalf("SaveGeneratedArticle failed: %v", err)
	}

	var status, content string
	if err := store.queryRow(ctx, `SELECT status, content FROM articles WHERE id = ?`, "a1").Scan(&status, &content); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if status != StatusGenerated || content != article.Content {
		t.Errorf("unexpected row: status=%s content=%q", status, content)
	}

	err := store.SaveGeneratedArticle(ctx, "missing", article, nil)
	if !errors.Is(err, ErrArticleNotFound) {
		t.Errorf("Expected ErrArticleNotFound, got %v", err)
	}
}

func TestRecordPublicationUnknownArticle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.RecordPublication(ctx, "does-not-exist", "https://acme.example/blog/x", time.Now())
	if !errors.Is(err, ErrArticleNotFound) {
		t.Fatalf("Expected ErrArticleNotFound, got %v", err)
	}

	var n int
	if err := store.queryRow(ctx, `SELECT COUNT(*) FROM article_publications`).Scan(&n); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 0 {
		t.Errorf("got %d publication rows, want 0", n)
	}
}

func TestRecordPublicationMarksPublished(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateProduct(ctx, testProduct()); err != nil {
		t.Fatalf("CreateProduct failed: %v", err)
	}
	if err := store.CreateArticle(ctx, core.ArticleRequest{ID: "a1", ProductID: "prod-1", Keyword: "k", ContentType: core.ContentTypeGuide}); err != nil {
		t.Fatalf("CreateArticle failed: %v", err)
	}
	for range 2 {
		if err := store.RecordPublication(ctx, "a1", "https://acme.example/blog/k", time.Now()); err != nil {
			t.Fatalf("RecordPublication failed: %v", err)
		}
	}

	var status string
	var n int
	if err := store.queryRow(ctx, `SELECT status FROM articles WHERE id = ?`, "a1").Scan(&status); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if err := store.queryRow(ctx, `SELECT COUNT(*) FROM article_publications WHERE article_id = ?`, "a1").Scan(&n); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if status != StatusPublished || n != 1 {
		t.Errorf("status=%s publications=%d, want %s and 1", status, n, StatusPublished)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	mm := NewMigrationManager(store)

	if err := mm.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}
	status, err := mm.Status(context.Background())
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	for _, s := range status {
		if !s.Applied || s.Drifted || s.AppliedAt.IsZero() {
			t.Errorf("migration %d: %+v", s.Version, s)
		}
	}
}

func TestRollbackRunsDownSection(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	mm := NewMigrationManager(store)

	version, reverted, err := mm.Rollback(ctx)
	if err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}
	if version != 1 || !reverted {
		t.Errorf("Rollback = (%d, %v), want (1, true)", version, reverted)
	}
	if _, _, err := store.LoadArticle(ctx, "art-1"); err == nil {
		t.Error("expected articles table to be dropped")
	}
	if _, _, err := mm.Rollback(ctx); !errors.Is(err, ErrNothingToRollback) {
		t.Errorf("second Rollback error = %v, want ErrNothingToRollback", err)
	}

	// Re-applying restores the schema.
	if err := mm.Migrate(ctx); err != nil {
		t.Fatalf("Migrate after rollback: %v", err)
	}
	if err := store.CreateProduct(ctx, core.ProductConfig{ID: "p", Name: "P"}); err != nil {
		t.Errorf("CreateProduct after re-migrate: %v", err)
	}
}

func TestReadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"002_add_index.sql": {Data: []byte("CREATE INDEX i ON t(a);")},
		"001_create_t.sql":  {Data: []byte("CREATE TABLE t (a INT);\n-- +down\nDROP TABLE t;\n")},
		"notes.txt":         {Data: []byte("ignored")},
	}
	got, err := readMigrations(fsys)
	if err != nil {
		t.Fatalf("readMigrations: %v", err)
	}
	if len(got) != 2 || got[0].Version != 1 || got[1].Version != 2 {
		t.Fatalf("versions = %+v", got)
	}
	if got[0].Name != "create_t" || got[0].Up != "CREATE TABLE t (a INT);" || got[0].Down != "DROP TABLE t;" {
		t.Errorf("migration 1 = %+v", got[0])
	}
	if got[1].Down != "" || got[1].Checksum == got[0].Checksum {
		t.Errorf("migration 2 = %+v", got[1])
	}

	bad := fstest.MapFS{"init.sql": {Data: []byte("SELECT 1;")}}
	if _, err := readMigrations(bad); err == nil {
		t.Error("expected error for unnumbered file")
	}
	dup := fstest.MapFS{
		"001_a.sql": {Data: []byte("SELECT 1;")},
		"1_b.sql":   {Data: []byte("SELECT 2;")},
	}
	if _, err := readMigrations(dup); err == nil {
		t.Error("expected error for duplicate version")
	}
}

func TestRebindDollar(t *testing.T) {
	got := rebindDollar(`SELECT * FROM t WHERE a = ? AND b = '?' AND c = ?`)
	want := `SELECT * FROM t WHERE a = $1 AND b = '?' AND c = $2`
	if got != want {
		t.Errorf("rebindDollar = %q, want %q", got, want)
	}
}
