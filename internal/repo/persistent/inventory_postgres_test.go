package persistent

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/andreyxaxa/kitchen-stream/internal/entity"
	"github.com/andreyxaxa/kitchen-stream/pkg/postgres"
	"github.com/andreyxaxa/kitchen-stream/pkg/types/errs"
)

func TestInventoryRepo(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	pgC, dsn := startPostgres(ctx, t)
	defer terminateContainer(t, pgC)

	pg, err := postgres.New(dsn, postgres.ConnAttempts(5))
	require.NoError(t, err)
	defer pg.Close()

	repo := NewInventoryRepo(pg)
	require.NoError(t, repo.EnsureSchema(ctx))
	seedInventory(ctx, t, pg)

	t.Run("menu lists recipes in name order", func(t *testing.T) {
		items, err := repo.GetMenuItems(ctx)
		require.NoError(t, err)
		assert.Equal(t, []entity.MenuItem{
			{Name: "Burger", Description: "with fries"},
			{Name: "Salad", Description: ""},
		}, items)
	})

	t.Run("feasibility fails closed", func(t *testing.T) {
		canMake, err := repo.CheckRecipeFeasible(ctx, "Unicorn Steak", 1)
		require.NoError(t, err)
		assert.False(t, canMake)

		// Seeded patty stock is 0.
		canMake, err = repo.CheckRecipeFeasible(ctx, "Burger", 1)
		require.NoError(t, err)
		assert.False(t, canMake)

		canMake, err = repo.CheckRecipeFeasible(ctx, "Salad", 5)
		require.NoError(t, err)
		assert.True(t, canMake)

		canMake, err = repo.CheckRecipeFeasible(ctx, "Salad", 6)
		require.NoError(t, err)
		assert.False(t, canMake)
	})

	t.Run("unknown recipe is a business result", func(t *testing.T) {
		result, err := repo.ConsumeRecipe(ctx, "Unicorn Steak", 1)
		require.NoError(t, err)
		assert.False(t, result.Consumed)
		assert.Equal(t, entity.ReasonRecipeNotFound, result.Comments)
	})

	t.Run("insufficient ingredient rolls back the whole recipe", func(t *testing.T) {
		setStock(ctx, t, pg, "bun", 5)
		setStock(ctx, t, pg, "patty", 0)

		canMake, err := repo.CheckRecipeFeasible(ctx, "Burger", 1)
		require.NoError(t, err)
		assert.False(t, canMake)

		result, err := repo.ConsumeRecipe(ctx, "Burger", 1)
		require.NoError(t, err)
		assert.False(t, result.Consumed)
		assert.Equal(t, "Insufficient quantity for ingredient: patty", result.Comments)

		// The bun decrement inside the failed transaction must not persist.
		assert.Equal(t, 5, stockOf(ctx, t, pg, "bun"))
		assert.Equal(t, 0, stockOf(ctx, t, pg, "patty"))
	})

	t.Run("successful consumption decrements all ingredients together", func(t *testing.T) {
		setStock(ctx, t, pg, "bun", 5)
		setStock(ctx, t, pg, "patty", 3)

		result, err := repo.ConsumeRecipe(ctx, "Burger", 2)
		require.NoError(t, err)
		assert.True(t, result.Consumed)
		assert.Equal(t, entity.ReasonConsumed, result.Comments)

		assert.Equal(t, 3, stockOf(ctx, t, pg, "bun"))
		assert.Equal(t, 1, stockOf(ctx, t, pg, "patty"))
	})

	t.Run("concurrent consumers never overdraw stock", func(t *testing.T) {
		setStock(ctx, t, pg, "onion", 5)

		const consumers = 10

		results := make([]entity.ConsumeResult, consumers)
		errors := make([]error, consumers)
		var wg sync.WaitGroup

		for i := 0; i < consumers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], errors[i] = repo.ConsumeRecipe(ctx, "Salad", 1)
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for i, result := range results {
			require.NoError(t, errors[i])
			if result.Consumed {
				succeeded++
			} else {
				assert.Equal(t, entity.ReasonInsufficient("onion"), result.Comments)
			}
		}

		assert.Equal(t, 5, succeeded)
		assert.Equal(t, 0, stockOf(ctx, t, pg, "onion"))
	})

	t.Run("exhausted pool surfaces on read paths", func(t *testing.T) {
		small, err := postgres.New(dsn,
			postgres.MaxPoolSize(1),
			postgres.AcquireTimeout(200*time.Millisecond),
			postgres.ConnAttempts(5),
		)
		require.NoError(t, err)
		defer small.Close()

		smallRepo := NewInventoryRepo(small)

		held := make(chan struct{})
		release := make(chan struct{})

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := small.WithinTransaction(ctx, func(ctx context.Context) error {
				close(held)
				<-release
				return nil
			})
			assert.NoError(t, err)
		}()

		<-held
		_, err = smallRepo.GetMenuItems(ctx)
		assert.ErrorIs(t, err, errs.ErrPoolExhausted)

		_, err = smallRepo.CheckRecipeFeasible(ctx, "Burger", 1)
		assert.ErrorIs(t, err, errs.ErrPoolExhausted)

		close(release)
		wg.Wait()
	})
}

func startPostgres(ctx context.Context, t *testing.T) (testcontainers.Container, string) {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16",
		Env:          map[string]string{"POSTGRES_PASSWORD": "postgres", "POSTGRES_USER": "postgres", "POSTGRES_DB": "inventory"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	mappedPort, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://postgres:postgres@%s:%s/inventory?sslmode=disable", host, mappedPort.Port())
	return container, dsn
}

func terminateContainer(t *testing.T, c testcontainers.Container) {
	t.Helper()
	terminateCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, c.Terminate(terminateCtx))
}

func seedInventory(ctx context.Context, t *testing.T, pg *postgres.Postgres) {
	t.Helper()

	statements := []string{
		`INSERT INTO recipes (name, description) VALUES ('Burger', 'with fries'), ('Salad', '')`,
		`INSERT INTO recipe_ingredients (recipe_name, ingredient_name, required_qty) VALUES
			('Burger', 'bun', 1), ('Burger', 'patty', 1), ('Salad', 'onion', 1)`,
		`INSERT INTO stock (ingredient_name, qty) VALUES ('bun', 5), ('patty', 0), ('onion', 5)`,
	}

	for _, stmt := range statements {
		_, err := pg.Pool.Exec(ctx, stmt)
		require.NoError(t, err)
	}
}

func setStock(ctx context.Context, t *testing.T, pg *postgres.Postgres, ingredient string, qty int) {
	t.Helper()

	_, err := pg.Pool.Exec(ctx, `UPDATE stock SET qty = $1 WHERE ingredient_name = $2`, qty, ingredient)
	require.NoError(t, err)
}

func stockOf(ctx context.Context, t *testing.T, pg *postgres.Postgres, ingredient string) int {
	t.Helper()

	var qty int
	err := pg.Pool.QueryRow(ctx, `SELECT qty FROM stock WHERE ingredient_name = $1`, ingredient).Scan(&qty)
	require.NoError(t, err)
	return qty
}
