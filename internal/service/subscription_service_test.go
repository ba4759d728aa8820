package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"

	"app/internal/model"
)

type fakeBilling struct {
	customer  *stripe.Customer
	activeSub *stripe.Subscription
	latestSub *stripe.Subscription
	err       error
}

func (f *fakeBilling) FindCustomerByEmail(_ context.Context, _ string) (*stripe.Customer, error) {
	return f.customer, f.err
}

func (f *fakeBilling) FindActiveSubscription(_ context.Context, _ string) (*stripe.Subscription, error) {
	return f.activeSub, f.err
}

func (f *fakeBilling) FindLatestSubscription(_ context.Context, _ string) (*stripe.Subscription, error) {
	return f.latestSub, f.err
}

type fakeSubscriberRepo struct {
	rows      map[string]*model.Subscriber
	upserts   int
	upsertErr error
}

func (f *fakeSubscriberRepo) GetByEmail(_ context.Context, email string) (*model.Subscriber, error) {
	sub, ok := f.rows[email]
	if !ok {
		return nil, nil
	}
	cp := *sub
	return &cp, nil
}

func (f *fakeSubscriberRepo) Upsert(_ context.Context, sub *model.Subscriber) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	if f.rows == nil {
		f.rows = map[string]*model.Subscriber{}
	}
	cp := *sub
	f.rows[sub.Email] = &cp
	f.upserts++
	return nil
}

func subWithPeriod(status stripe.SubscriptionStatus, start, end time.Time) *stripe.Subscription {
	return &stripe.Subscription{
		ID:     "sub_123",
		Status: status,
		Items: &stripe.SubscriptionItemList{
			Data: []*stripe.SubscriptionItem{{
				CurrentPeriodStart: start.Unix(),
				CurrentPeriodEnd:   end.Unix(),
			}},
		},
	}
}

var testIdentity = Identity{
	UserID:          "user-1",
	Email:           "alice@example.com",
	DiscordUserID:   "111222333",
	DiscordUsername: "alice#0001",
}

func TestReconcileNoCustomer(t *testing.T) {
	repo := &fakeSubscriberRepo{}
	svc := NewSubscriptionService(&fakeBilling{}, repo, "basic", zerolog.Nop())

	res, err := svc.Reconcile(context.Background(), testIdentity)
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionStatusPending, res.Status)
	assert.Nil(t, res.Tier)
	assert.Nil(t, res.Start)
	assert.Nil(t, res.End)

	row := repo.rows["alice@example.com"]
	require.NotNil(t, row)
	assert.Equal(t, model.SubscriptionStatusPending, row.SubscriptionStatus)
	assert.Nil(t, row.SubscriptionTier)
	assert.Nil(t, row.StripeCustomerID)
}

func TestReconcileActiveSubscription(t *testing.T) {
	t0 := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.AddDate(0, 1, 0)
	billing := &fakeBilling{
		customer:  &stripe.Customer{ID: "cus_123"},
		activeSub: subWithPeriod(stripe.SubscriptionStatusActive, t0, t1),
	}
	repo := &fakeSubscriberRepo{}
	svc := NewSubscriptionService(billing, repo, "basic", zerolog.Nop())

	res, err := svc.Reconcile(context.Background(), testIdentity)
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionStatusActive, res.Status)
	require.NotNil(t, res.Tier)
	assert.Equal(t, "basic", *res.Tier)
	require.NotNil(t, res.Start)
	assert.True(t, res.Start.Equal(t0))
	require.NotNil(t, res.End)
	assert.True(t, res.End.Equal(t1))

	row := repo.rows["alice@example.com"]
	require.NotNil(t, row)
	assert.Equal(t, model.SubscriptionStatusActive, row.SubscriptionStatus)
	require.NotNil(t, row.StripeCustomerID)
	assert.Equal(t, "cus_123", *row.StripeCustomerID)
	require.NotNil(t, row.DiscordUserID)
	assert.Equal(t, "111222333", *row.DiscordUserID)
}

func TestReconcileCancelledSubscription(t *testing.T) {
	t0 := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	billing := &fakeBilling{
		customer:  &stripe.Customer{ID: "cus_123"},
		latestSub: subWithPeriod(stripe.SubscriptionStatusCanceled, t0, t0.AddDate(0, 1, 0)),
	}
	repo := &fakeSubscriberRepo{}
	svc := NewSubscriptionService(billing, repo, "basic", zerolog.Nop())

	res, err := svc.Reconcile(context.Background(), testIdentity)
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionStatusCancelled, res.Status)
	assert.Nil(t, res.Tier)
	require.NotNil(t, res.Start)
}

func TestReconcilePastDueSubscription(t *testing.T) {
	t0 := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	billing := &fakeBilling{
		customer:  &stripe.Customer{ID: "cus_123"},
		latestSub: subWithPeriod(stripe.SubscriptionStatusPastDue, t0, t0.AddDate(0, 1, 0)),
	}
	svc := NewSubscriptionService(billing, &fakeSubscriberRepo{}, "basic", zerolog.Nop())

	res, err := svc.Reconcile(context.Background(), testIdentity)
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionStatusExpired, res.Status)
}

func TestReconcileOtherStatusStaysPending(t *testing.T) {
	t0 := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	billing := &fakeBilling{
		customer:  &stripe.Customer{ID: "cus_123"},
		latestSub: subWithPeriod(stripe.SubscriptionStatusIncomplete, t0, t0.AddDate(0, 1, 0)),
	}
	svc := NewSubscriptionService(billing, &fakeSubscriberRepo{}, "basic", zerolog.Nop())

	res, err := svc.Reconcile(context.Background(), testIdentity)
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionStatusPending, res.Status)
}

func TestReconcileIsIdempotent(t *testing.T) {
	t0 := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	billing := &fakeBilling{
		customer:  &stripe.Customer{ID: "cus_123"},
		activeSub: subWithPeriod(stripe.SubscriptionStatusActive, t0, t0.AddDate(0, 1, 0)),
	}
	repo := &fakeSubscriberRepo{}
	svc := NewSubscriptionService(billing, repo, "basic", zerolog.Nop())

	_, err := svc.Reconcile(context.Background(), testIdentity)
	require.NoError(t, err)
	first := *repo.rows["alice@example.com"]

	_, err = svc.Reconcile(context.Background(), testIdentity)
	require.NoError(t, err)
	second := *repo.rows["alice@example.com"]

	assert.Equal(t, first, second)
	assert.Equal(t, 2, repo.upserts)
}

func TestReconcileProviderError(t *testing.T) {
	billing := &fakeBilling{err: errors.New("stripe unavailable")}
	repo := &fakeSubscriberRepo{}
	svc := NewSubscriptionService(billing, repo, "basic", zerolog.Nop())

	_, err := svc.Reconcile(context.Background(), testIdentity)
	require.Error(t, err)
	assert.Zero(t, repo.upserts)
}

func TestReconcilePersistenceError(t *testing.T) {
	billing := &fakeBilling{}
	repo := &fakeSubscriberRepo{upsertErr: errors.New("db down")}
	svc := NewSubscriptionService(billing, repo, "basic", zerolog.Nop())

	_, err := svc.Reconcile(context.Background(), testIdentity)
	require.Error(t, err)
}
