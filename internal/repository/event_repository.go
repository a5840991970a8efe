package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/fairticket/ticketing-backend/internal/models"
	"github.com/fairticket/ticketing-backend/internal/repository/common"
)

// ErrEventNotFound возвращается, когда событие не найдено или удалено.
var ErrEventNotFound = errors.New("event not found")

const (
	eventColumns = `e.id, e.org_id, e.user_id, e.event_title, e.event_type, e.date_times,
		e.price_starting_range, e.price_ending_range, e.currency, e.event_desc, e.event_tags, e.images, e.video,
		e.is_published, e.is_featured, e.is_disabled, e.is_deleted, e.created_by, e.updated_by,
		e.created_at, e.updated_at, o.name AS organization_name`
	eventJoin   = ` LEFT JOIN organizations o ON o.id = e.org_id`
	eventSelect = `SELECT ` + eventColumns + ` FROM events e` + eventJoin
)

// Флаги, которые можно переключать через ToggleFlag.
const (
	EventFlagPublished = "is_published"
	EventFlagFeatured  = "is_featured"
)

// EventRepository отвечает за работу с таблицей events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository создаёт экземпляр репозитория.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create сохраняет событие неопубликованным.
func (r *EventRepository) Create(ctx context.Context, e *models.Event) error {
	query := `
		INSERT INTO events (org_id, user_id, event_title, event_type, date_times, price_starting_range,
			price_ending_range, currency, event_desc, event_tags, images, video, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $2, $2)
		RETURNING id, is_published, is_featured, is_disabled, created_by, updated_by, created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		e.OrgID,
		e.UserID,
		e.EventTitle,
		e.EventType,
		e.DateTimes,
		e.PriceStartingRange,
		e.PriceEndingRange,
		e.Currency,
		e.EventDesc,
		e.EventTags,
		e.Images,
		e.Video,
	).Scan(&e.ID, &e.IsPublished, &e.IsFeatured, &e.IsDisabled, &e.CreatedBy, &e.UpdatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("event repository: create %w", err)
	}
	return nil
}

// GetByID возвращает неудалённое событие вместе с именем организации.
func (r *EventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	return r.getOne(ctx, "get by id", eventSelect+` WHERE e.id = $1 AND e.is_deleted = FALSE`, id)
}

// ListByIDs возвращает события в порядке переданных id. Отсутствующие и удалённые пропускаются.
func (r *EventRepository) ListByIDs(ctx context.Context, ids []int64) ([]models.Event, error) {
	if len(ids) == 0 {
		return []models.Event{}, nil
	}
	return r.list(ctx, "list by ids", eventSelect+`
		WHERE e.id = ANY($1::BIGINT[]) AND e.is_deleted = FALSE
		ORDER BY array_position($1::BIGINT[], e.id)`, pq.Int64Array(ids))
}

// ListByOrg возвращает события организации.
func (r *EventRepository) ListByOrg(ctx context.Context, orgID int64) ([]models.Event, error) {
	return r.list(ctx, "list by org", eventSelect+`
		WHERE e.org_id = $1 AND e.is_deleted = FALSE
		ORDER BY e.created_at DESC, e.id DESC`, orgID)
}

// ListByUser возвращает события, созданные пользователем.
func (r *EventRepository) ListByUser(ctx context.Context, userID int64) ([]models.Event, error) {
	return r.list(ctx, "list by user", eventSelect+`
		WHERE e.user_id = $1 AND e.is_deleted = FALSE
		ORDER BY e.created_at DESC, e.id DESC`, userID)
}

// ListFeaturedByUser возвращает активные избранные события пользователя.
func (r *EventRepository) ListFeaturedByUser(ctx context.Context, userID int64) ([]models.Event, error) {
	return r.list(ctx, "list featured", eventSelect+`
		WHERE e.user_id = $1 AND e.is_featured = TRUE AND e.is_deleted = FALSE AND e.is_disabled = FALSE
		ORDER BY e.created_at DESC, e.id DESC`, userID)
}

// ListAll возвращает все неудалённые события.
func (r *EventRepository) ListAll(ctx context.Context) ([]models.Event, error) {
	return r.list(ctx, "list all", eventSelect+`
		WHERE e.is_deleted = FALSE
		ORDER BY e.created_at DESC, e.id DESC`)
}

// ListRecent возвращает последние опубликованные события.
func (r *EventRepository) ListRecent(ctx context.Context, limit int) ([]models.Event, error) {
	return r.list(ctx, "list recent", eventSelect+`
		WHERE e.is_published = TRUE AND e.is_deleted = FALSE
		ORDER BY e.created_at DESC, e.id DESC
		LIMIT $1`, limit)
}

// Search ищет события по подстроке в названии без учёта регистра.
// Пустой запрос возвращает опубликованные события, не больше limit.
func (r *EventRepository) Search(ctx context.Context, text string, limit int) ([]models.Event, error) {
	if strings.TrimSpace(text) == "" {
		return r.list(ctx, "search", eventSelect+`
			WHERE e.is_published = TRUE AND e.is_deleted = FALSE
			ORDER BY e.created_at DESC, e.id DESC
			LIMIT $1`, limit)
	}
	return r.list(ctx, "search", eventSelect+`
		WHERE e.event_title ILIKE $1 AND e.is_deleted = FALSE
		ORDER BY e.created_at DESC, e.id DESC`, containsPattern(text))
}

// ListPublished возвращает опубликованные события с необязательными фильтрами по типу и тегу.
func (r *EventRepository) ListPublished(ctx context.Context, eventType, category string) ([]models.Event, error) {
	query := eventSelect + ` WHERE e.is_published = TRUE AND e.is_deleted = FALSE`
	args := []interface{}{}
	argIndex := 1

	if eventType != "" {
		query += fmt.Sprintf(" AND e.event_type = $%d", argIndex)
		args = append(args, eventType)
		argIndex++
	}
	if category != "" {
		query += fmt.Sprintf(
			" AND EXISTS (SELECT 1 FROM jsonb_array_elements_text(e.event_tags) AS tag WHERE tag ILIKE $%d)", argIndex)
		args = append(args, containsPattern(category))
		argIndex++
	}

	query += " ORDER BY e.created_at DESC, e.id DESC"
	return r.list(ctx, "list published", query, args...)
}

// Filter возвращает активные события пользователя по условиям фильтра.
func (r *EventRepository) Filter(ctx context.Context, f models.EventFilter) ([]models.Event, error) {
	query, args := eventFilterQuery(f)
	return r.list(ctx, "filter", query, args...)
}

func eventFilterQuery(f models.EventFilter) (string, []interface{}) {
	query := eventSelect + ` WHERE e.user_id = $1 AND e.is_deleted = FALSE AND e.is_disabled = FALSE`
	args := []interface{}{f.UserID}
	argIndex := 2

	// Название и описание объединяются через OR.
	var text []string
	if f.Title != "" {
		text = append(text, fmt.Sprintf("e.event_title ILIKE $%d", argIndex))
		args = append(args, containsPattern(f.Title))
		argIndex++
	}
	if f.Description != "" {
		text = append(text, fmt.Sprintf("e.event_desc ILIKE $%d", argIndex))
		args = append(args, containsPattern(f.Description))
		argIndex++
	}
	if len(text) > 0 {
		query += " AND (" + strings.Join(text, " OR ") + ")"
	}

	if f.PriceStart != nil {
		query += fmt.Sprintf(" AND e.price_starting_range >= $%d", argIndex)
		args = append(args, *f.PriceStart)
		argIndex++
	}
	if f.PriceEnd != nil {
		query += fmt.Sprintf(" AND e.price_ending_range <= $%d", argIndex)
		args = append(args, *f.PriceEnd)
		argIndex++
	}

	// Дата и время сравниваются внутри одного дня расписания.
	var schedule []string
	for _, c := range []struct {
		value string
		cond  string
	}{
		{f.StartDate, "dt->>'date' >= $%d"},
		{f.EndDate, "dt->>'date' <= $%d"},
		{f.StartTime, "dt->>'stime' >= $%d"},
		{f.EndTime, "dt->>'etime' <= $%d"},
	} {
		if c.value == "" {
			continue
		}
		schedule = append(schedule, fmt.Sprintf(c.cond, argIndex))
		args = append(args, c.value)
		argIndex++
	}
	if len(schedule) > 0 {
		query += " AND EXISTS (SELECT 1 FROM jsonb_array_elements(e.date_times) AS dt WHERE " +
			strings.Join(schedule, " AND ") + ")"
	}

	query += " ORDER BY e.created_at DESC, e.id DESC"
	return query, args
}

// Update применяет переданные поля и возвращает обновлённое событие.
func (r *EventRepository) Update(ctx context.Context, id, updatedBy int64, upd *models.EventUpdate) (*models.Event, error) {
	sets, args := eventUpdateSet(upd)
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	args = append(args, updatedBy, id)
	query := fmt.Sprintf(`
		WITH e AS (
			UPDATE events SET %s, updated_by = $%d, updated_at = NOW()
			WHERE id = $%d AND is_deleted = FALSE
			RETURNING *
		)
		SELECT %s FROM e%s`,
		strings.Join(sets, ", "), len(args)-1, len(args), eventColumns, eventJoin)

	return r.getOne(ctx, "update", query, args...)
}

// ToggleFlag атомарно инвертирует флаг события и возвращает событие с новым значением.
func (r *EventRepository) ToggleFlag(ctx context.Context, id int64, flag string) (*models.Event, error) {
	if flag != EventFlagPublished && flag != EventFlagFeatured {
		return nil, fmt.Errorf("event repository: неизвестный флаг %q", flag)
	}

	query := fmt.Sprintf(`
		WITH e AS (
			UPDATE events SET %[1]s = NOT %[1]s, updated_at = NOW()
			WHERE id = $1 AND is_deleted = FALSE
			RETURNING *
		)
		SELECT %[2]s FROM e%[3]s`, flag, eventColumns, eventJoin)

	return r.getOne(ctx, "toggle "+flag, query, id)
}

func eventUpdateSet(upd *models.EventUpdate) ([]string, []interface{}) {
	var (
		sets []string
		args []interface{}
	)
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.EventTitle != nil {
		add("event_title", *upd.EventTitle)
	}
	if upd.EventType != nil {
		add("event_type", *upd.EventType)
	}
	if upd.DateTimes != nil {
		add("date_times", *upd.DateTimes)
	}
	if upd.PriceStartingRange != nil {
		add("price_starting_range", *upd.PriceStartingRange)
	}
	if upd.PriceEndingRange != nil {
		add("price_ending_range", *upd.PriceEndingRange)
	}
	if upd.Currency != nil {
		add("currency", *upd.Currency)
	}
	if upd.EventDesc != nil {
		add("event_desc", *upd.EventDesc)
	}
	if upd.EventTags != nil {
		add("event_tags", *upd.EventTags)
	}
	if upd.Images != nil {
		add("images", *upd.Images)
	}
	if upd.Video != nil {
		add("video", *upd.Video)
	}

	return sets, args
}

func (r *EventRepository) getOne(ctx context.Context, op, query string, args ...interface{}) (*models.Event, error) {
	event, err := common.GetOne[models.Event](ctx, r.db, ErrEventNotFound, query, args...)
	if err != nil && !errors.Is(err, ErrEventNotFound) {
		return nil, fmt.Errorf("event repository: %s %w", op, err)
	}
	return event, err
}

func (r *EventRepository) list(ctx context.Context, op, query string, args ...interface{}) ([]models.Event, error) {
	events := []models.Event{}
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("event repository: %s %w", op, err)
	}
	return events, nil
}

// containsPattern строит шаблон ILIKE для поиска подстроки, экранируя спецсимволы.
func containsPattern(text string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.TrimSpace(text))
	return "%" + escaped + "%"
}
