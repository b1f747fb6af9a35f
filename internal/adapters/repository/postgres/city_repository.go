package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/org-directory/internal/core/city"
	"github.com/ogurasousui/org-directory/internal/core/store"
	pgdb "github.com/ogurasousui/org-directory/internal/platform/db/postgres"
	applog "github.com/ogurasousui/org-directory/internal/platform/logger"
	"go.uber.org/zap"
)

const selectCities = `
        SELECT c.id, c.name
          FROM cities c`

const selectCityByID = selectCities + `
         WHERE c.id = $1`

var _ store.Store[*city.City, int64] = (*CityRepository)(nil)

// CityRepository は PostgreSQL を利用した都市永続化の実装です。
type CityRepository struct {
	*entityStore[*city.City]
}

// NewCityRepository は CityRepository を生成します。
func NewCityRepository(factory pgdb.SessionFactory, logger *zap.Logger) *CityRepository {
	return &CityRepository{
		entityStore: newEntityStore(factory, cityMapping, applog.OrNop(logger).Named("city_repository")),
	}
}

var cityMapping = mapping[*city.City]{
	name:       "city",
	selectAll:  selectCities,
	selectByID: selectCityByID,
	deleteByID: `DELETE FROM cities WHERE id = $1`,
	scan:       scanCity,
	insert: func(ctx context.Context, q pgdb.Queryer, c *city.City) (int64, error) {
		var id int64
		err := q.QueryRow(ctx, `INSERT INTO cities (name) VALUES ($1) RETURNING id`, c.Name).Scan(&id)
		return id, err
	},
	merge: func(ctx context.Context, q pgdb.Queryer, c *city.City) error {
		tag, err := q.Exec(ctx, `UPDATE cities SET name = $1 WHERE id = $2`, c.Name, c.ID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errNotFound
		}
		return nil
	},
	id:    func(c *city.City) int64 { return c.ID },
	setID: func(c *city.City, id int64) { c.ID = id },
}

func scanCity(row pgx.Row) (*city.City, error) {
	var c city.City
	if err := row.Scan(&c.ID, &c.Name); err != nil {
		return nil, translateNoRows(err)
	}
	return &c, nil
}
