package integration

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"recipealmanac/internal/blob"
	"recipealmanac/internal/core"
	"recipealmanac/internal/infra/persistence/sqlite"
	"recipealmanac/pkg/domain"
)

// TestIntegrationSmoke exercises a minimal end-to-end write/read cycle for
// each supported in-process storage and blob adapter. It intentionally keeps
// scope tiny so it can act as a fast CI health check.
func TestIntegrationSmoke(t *testing.T) {
	ctx := context.Background()

	storeVariants := []struct {
		name string
		open func(t *testing.T) domain.PersistentStore
	}{
		{
			name: "memory-store",
			open: func(_ *testing.T) domain.PersistentStore {
				return core.NewMemoryStore(core.NewDefaultRulesEngine())
			},
		},
		{
			name: "sqlite-store",
			open: func(t *testing.T) domain.PersistentStore {
				path := filepath.Join(t.TempDir(), "almanac.db")
				s, err := sqlite.NewStore(path, core.NewDefaultRulesEngine())
				if err != nil {
					t.Skipf("sqlite unavailable: %v", err)
				}
				return s
			},
		},
	}

	blobVariants := []struct {
		name string
		open func(t *testing.T) blob.Store
	}{
		{
			name: "memory-blob",
			open: func(_ *testing.T) blob.Store { return blob.NewMemory() },
		},
		{
			name: "filesystem-blob",
			open: func(t *testing.T) blob.Store {
				fs, err := blob.NewFilesystem(t.TempDir())
				if err != nil {
					t.Fatalf("new filesystem blob: %v", err)
				}
				return fs
			},
		},
	}

	for _, sv := range storeVariants {
		t.Run(sv.name, func(t *testing.T) {
			store := sv.open(t)
			metrics := core.NewExpvarMetricsRecorder("")
			var traceBuf bytes.Buffer
			tracer := core.NewJSONTracer(&traceBuf)
			svc := core.NewService(store,
				core.WithMetricsRecorder(metrics),
				core.WithTracer(tracer),
			)

			author, res, err := svc.CreateUser(ctx, domain.User{Handle: "ada", DisplayName: "Ada"})
			if err != nil {
				t.Fatalf("create user: %v", err)
			}
			if res.HasBlocking() {
				t.Fatalf("unexpected blocking violations: %+v", res.Violations)
			}

			recipe, _, err := svc.CreateRecipe(ctx, domain.Recipe{
				AuthorID:    author.ID,
				Title:       "Bread",
				Servings:    4,
				Ingredients: []domain.Ingredient{core.ComposeIngredient("flour", 2, "cups")},
			})
			if err != nil {
				t.Fatalf("create recipe: %v", err)
			}

			if _, _, err := svc.FavoriteRecipe(ctx, author.ID, recipe.ID); err != nil {
				t.Fatalf("favorite: %v", err)
			}
			if got := svc.ListUserFavorites(author.ID); len(got) != 1 {
				t.Fatalf("favorites = %d", len(got))
			}

			rendered, err := svc.RenderRecipe(ctx, recipe.ID, core.RenderOptions{Scale: 2})
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			if rendered.Ingredients[0].Display != "4 cups" {
				t.Fatalf("render display = %q", rendered.Ingredients[0].Display)
			}

			snap := metrics.Snapshot()
			if snap.Results["create_recipe"]["success"] != 1 {
				t.Fatalf("metrics = %+v", snap.Results)
			}
			if len(tracer.Entries()) == 0 {
				t.Fatal("expected trace entries")
			}
		})
	}

	for _, bv := range blobVariants {
		t.Run(bv.name, func(t *testing.T) {
			blobs := bv.open(t)
			key := "recipes/smoke/photo"
			if _, err := blobs.Put(ctx, key, strings.NewReader("jpegbytes"), blob.PutOptions{ContentType: "image/jpeg"}); err != nil {
				t.Fatalf("put: %v", err)
			}
			info, rc, err := blobs.Get(ctx, key)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			_ = rc.Close()
			if info.ContentType != "image/jpeg" {
				t.Fatalf("content type = %q", info.ContentType)
			}
			if existed, err := blobs.Delete(ctx, key); err != nil || !existed {
				t.Fatalf("delete = %v, %v", existed, err)
			}
		})
	}
}
