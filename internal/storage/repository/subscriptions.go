package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/membership-service/internal/models"
)

const subscriptionColumns = `id, user_uid, stripe_subscription_id, status, plan_name,
			      current_period_end, cancel_at_period_end, created_at, updated_at`

// LatestSubscriptionByUser возвращает последнюю созданную подписку пользователя.
// Порядок задаётся явно: created_at, при равенстве — id.
func (s *Storage) LatestSubscriptionByUser(ctx context.Context, userUID string) (*models.Subscription, error) {
	const op = "storage.LatestSubscriptionByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE user_uid = $1
			  ORDER BY created_at DESC, id DESC
			  LIMIT 1`
	return scanSubscription(s.DB.QueryRowContext(ctx, query, userUID), op)
}

// GetSubscriptionByExternalID возвращает подписку по идентификатору Stripe.
func (s *Storage) GetSubscriptionByExternalID(ctx context.Context, externalID string) (*models.Subscription, error) {
	const op = "storage.GetSubscriptionByExternalID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE stripe_subscription_id = $1`
	return scanSubscription(s.DB.QueryRowContext(ctx, query, externalID), op)
}

// ActiveSubscriptionByUser возвращает последнюю активную подписку пользователя.
func (s *Storage) ActiveSubscriptionByUser(ctx context.Context, userUID string) (*models.Subscription, error) {
	const op = "storage.ActiveSubscriptionByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE user_uid = $1 AND status = 'active'
			  ORDER BY created_at DESC, id DESC
			  LIMIT 1`
	return scanSubscription(s.DB.QueryRowContext(ctx, query, userUID), op)
}

// SetCancelAtPeriodEnd выставляет флаг отмены в конце периода на строке реестра.
// Вызывается только после подтверждения отмены процессором.
func (s *Storage) SetCancelAtPeriodEnd(ctx context.Context, subscriptionID int64, flag bool) error {
	const op = "storage.SetCancelAtPeriodEnd"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET cancel_at_period_end = $1, updated_at = NOW()
			  WHERE id = $2`
	_, err := s.DB.ExecContext(ctx, query, flag, subscriptionID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ApplyCheckoutCompleted применяет событие завершения оплаты: создаёт либо
// обновляет строку реестра по идентификатору подписки Stripe и выставляет
// роль владельца. Обе записи меняются в одной транзакции; повторная доставка
// того же события не создаёт дубликатов.
func (s *Storage) ApplyCheckoutCompleted(ctx context.Context, userUID, externalID string,
	plan models.Plan, periodEnd *time.Time, role models.Role) error {
	const op = "storage.ApplyCheckoutCompleted"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Нераспознанный план хранится как NULL, а не как пустая строка.
	planName := sql.NullString{String: string(plan), Valid: plan != ""}

	upsert := `INSERT INTO subscriptions
			       (user_uid, stripe_subscription_id, status, plan_name, current_period_end)
			   VALUES ($1, $2, 'active', $3, $4)
			   ON CONFLICT (stripe_subscription_id) DO UPDATE
			   SET status = 'active',
			       current_period_end = EXCLUDED.current_period_end,
			       updated_at = NOW()`
	if _, err = tx.ExecContext(ctx, upsert, userUID, externalID, planName, periodEnd); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE users SET role = $1, updated_at = NOW() WHERE uid = $2`, role, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ApplySubscriptionUpdate применяет событие обновления подписки к строке
// реестра с данным идентификатором Stripe. Nil-поля патча не меняют текущие
// значения. Если newRole не пустая, роль владельца меняется в той же
// транзакции. Возвращает false, если строка реестра не найдена.
func (s *Storage) ApplySubscriptionUpdate(ctx context.Context, externalID string,
	upd models.SubscriptionUpdate, newRole models.Role) (bool, error) {
	const op = "storage.ApplySubscriptionUpdate"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `UPDATE subscriptions
			  SET status = $1,
			      current_period_end = COALESCE($2, current_period_end),
			      cancel_at_period_end = COALESCE($3, cancel_at_period_end),
			      updated_at = NOW()
			  WHERE stripe_subscription_id = $4
			  RETURNING user_uid`
	var ownerUID string
	err = tx.QueryRowContext(ctx, query,
		upd.Status, upd.CurrentPeriodEnd, upd.CancelAtPeriodEnd, externalID).Scan(&ownerUID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if newRole != "" {
		if _, err = tx.ExecContext(ctx,
			`UPDATE users SET role = $1, updated_at = NOW() WHERE uid = $2`, newRole, ownerUID); err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

func scanSubscription(row *sql.Row, op string) (*models.Subscription, error) {
	sub := &models.Subscription{}
	var status string
	var externalID, plan sql.NullString
	var periodEnd, updatedAt sql.NullTime
	if err := row.Scan(&sub.ID, &sub.UserUID, &externalID, &status, &plan,
		&periodEnd, &sub.CancelAtPeriodEnd, &sub.CreatedAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrSubscriptionNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	parsedStatus, err := models.ParseSubscriptionStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sub.Status = parsedStatus
	if plan.Valid {
		sub.PlanName = models.Plan(plan.String)
	}
	if externalID.Valid {
		sub.StripeSubscriptionID = &externalID.String
	}
	if periodEnd.Valid {
		sub.CurrentPeriodEnd = &periodEnd.Time
	}
	if updatedAt.Valid {
		sub.UpdatedAt = &updatedAt.Time
	}
	return sub, nil
}
