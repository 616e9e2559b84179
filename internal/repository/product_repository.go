package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"atelier/internal/domain/models"
	"atelier/internal/lib/logger/sl"
	"atelier/internal/storage"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const productTable = "products"

// Порядок выдачи каталога: доступные товары раньше распроданных, внутри
// группы новые раньше старых, id как стабильный тай-брейк.
var listOrdering = []string{"sold_out ASC", "created_at DESC", "id DESC"}

var productColumns = []string{
	"id",
	"name",
	"description",
	"category",
	"sizes",
	"colors",
	"tags",
	"media",
	"is_new_collection",
	"sold_out",
	"created_at",
}

type ProductRepo struct {
	log  *slog.Logger
	db   *pgxpool.Pool
	sb   sq.StatementBuilderType
	exec *Executor
}

func NewProductRepository(log *slog.Logger, db *pgxpool.Pool, exec *Executor) *ProductRepo {
	return &ProductRepo{
		log:  log,
		db:   db,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		exec: exec,
	}
}

func (r *ProductRepo) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	const op = "repository.product_repository.Create"

	query, args, err := r.sb.Insert(productTable).
		Columns(
			"name",
			"description",
			"category",
			"sizes",
			"colors",
			"tags",
			"media",
			"is_new_collection",
			"sold_out",
		).
		Values(
			product.Name,
			product.Description,
			product.Category,
			product.Sizes,
			product.Colors,
			product.Tags,
			product.Media,
			product.IsNewCollection,
			product.SoldOut,
		).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	created := *product

	err = r.exec.Execute(ctx, op, func(ctx context.Context) error {
		return r.db.QueryRow(ctx, query, args...).Scan(&created.ID, &created.CreatedAt)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %s %w", op, err)
	}

	return &created, nil
}

func (r *ProductRepo) Get(ctx context.Context, id int64) (*models.Product, error) {
	const op = "repository.product_repository.Get"

	query, args, err := r.sb.Select(productColumns...).
		From(productTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	var product *models.Product

	err = r.exec.Execute(ctx, op, func(ctx context.Context) error {
		p, scanErr := r.scanProduct(ctx, r.db.QueryRow(ctx, query, args...))
		if scanErr != nil {
			return scanErr
		}
		product = p
		return nil
	})
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrProductNotFound)
		}
		return nil, fmt.Errorf("failed to get product: %s %w", op, err)
	}

	return product, nil
}

func (r *ProductRepo) List(ctx context.Context, filter ListFilter, page, pageSize int) (*ProductPage, error) {
	const op = "repository.product_repository.List"

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 12
	}
	offset := (page - 1) * pageSize

	where := sq.And{}
	if filter.Category != "" {
		where = append(where, sq.Eq{"category": filter.Category})
	}
	if filter.NewCollectionOnly {
		where = append(where, sq.Eq{"is_new_collection": true})
	}

	countQuery, countArgs, err := r.sb.Select("COUNT(*)").
		From(productTable).
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: can't build count sql: %w", op, err)
	}

	query, args, err := r.sb.Select(productColumns...).
		From(productTable).
		Where(where).
		OrderBy(listOrdering...).
		Limit(uint64(pageSize)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	result := &ProductPage{Items: []models.Product{}}

	err = r.exec.Execute(ctx, op, func(ctx context.Context) error {
		var total int
		if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
			return fmt.Errorf("count: %w", err)
		}

		rows, err := r.db.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		items := []models.Product{}
		for rows.Next() {
			p, scanErr := r.scanProduct(ctx, rows)
			if scanErr != nil {
				return scanErr
			}
			items = append(items, *p)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("rows iteration error: %w", err)
		}

		result.Items = items
		result.Total = total
		result.HasMore = offset+len(items) < total
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %s %w", op, err)
	}

	return result, nil
}

// UpdateSoldOut переключает флаг sold_out. Проверка существования и сам
// апдейт идут одной повторяемой единицей работы.
func (r *ProductRepo) UpdateSoldOut(ctx context.Context, id int64, soldOut bool) (*models.Product, error) {
	const op = "repository.product_repository.UpdateSoldOut"

	query, args, err := r.sb.Update(productTable).
		Set("sold_out", soldOut).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + columnList()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	var updated *models.Product

	err = r.exec.Execute(ctx, op, func(ctx context.Context) error {
		exists, existsErr := r.exists(ctx, id)
		if existsErr != nil {
			return existsErr
		}
		if !exists {
			return storage.ErrProductNotFound
		}

		p, scanErr := r.scanProduct(ctx, r.db.QueryRow(ctx, query, args...))
		if scanErr != nil {
			return scanErr
		}
		updated = p
		return nil
	})
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrProductNotFound)
		}
		return nil, fmt.Errorf("failed to update product: %s %w", op, err)
	}

	return updated, nil
}

func (r *ProductRepo) Delete(ctx context.Context, id int64) error {
	const op = "repository.product_repository.Delete"

	query, args, err := r.sb.Delete(productTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	err = r.exec.Execute(ctx, op, func(ctx context.Context) error {
		exists, existsErr := r.exists(ctx, id)
		if existsErr != nil {
			return existsErr
		}
		if !exists {
			return storage.ErrProductNotFound
		}

		_, execErr := r.db.Exec(ctx, query, args...)
		return execErr
	})
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return fmt.Errorf("%s: %w", op, storage.ErrProductNotFound)
		}
		return fmt.Errorf("failed to delete product: %s %w", op, err)
	}

	return nil
}

func (r *ProductRepo) exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`,
		id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check product existence: %w", err)
	}
	return exists, nil
}

// scanProduct reads one row, normalizing the media column through every
// historical encoding before falling back to an empty list. One bad row
// never fails a whole page.
func (r *ProductRepo) scanProduct(ctx context.Context, row pgx.Row) (*models.Product, error) {
	var p models.Product
	var rawMedia []byte

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Category,
		&p.Sizes,
		&p.Colors,
		&p.Tags,
		&rawMedia,
		&p.IsNewCollection,
		&p.SoldOut,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrProductNotFound
		}
		return nil, fmt.Errorf("row scanning failed: %w", err)
	}

	p.Media = r.decodeMedia(ctx, p.ID, rawMedia)

	return &p, nil
}

func (r *ProductRepo) decodeMedia(ctx context.Context, id int64, raw []byte) models.MediaList {
	media, err := models.DecodeMediaList(raw)
	if err == nil {
		return media
	}

	r.log.Warn("media column did not decode, re-reading raw value",
		slog.Int64("product_id", id),
		sl.Err(err),
	)

	// Известная легаси-форма: колонка хранит строку, которую драйвер уже
	// успел переработать. Перечитываем колонку как text и разбираем сами.
	var text string
	query, args, buildErr := r.sb.Select("media::text").
		From(productTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if buildErr == nil {
		if qErr := r.db.QueryRow(ctx, query, args...).Scan(&text); qErr == nil {
			if media, err = models.DecodeMediaList([]byte(text)); err == nil {
				return media
			}
		}
	}

	r.log.Warn("media fallback decode failed, treating as empty",
		slog.Int64("product_id", id),
	)

	return models.MediaList{}
}

func columnList() string {
	return strings.Join(productColumns, ", ")
}
