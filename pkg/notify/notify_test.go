package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/jobboard/pkg/jobs"
	"github.com/platinummonkey/jobboard/pkg/rbac"
)

func sampleJob() *jobs.Job {
	return &jobs.Job{ID: 7, InstitutionID: 10, AuthorID: 100, Title: "Monitor", Status: jobs.StatusOpen}
}

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, BackoffMultiplier: 2}
}

func TestRetryConfig_NextRetryDelay(t *testing.T) {
	cfg := RetryConfig{InitialDelay: time.Second, MaxDelay: 5 * time.Second, BackoffMultiplier: 2}
	assert.Equal(t, time.Second, cfg.NextRetryDelay(1))
	assert.Equal(t, 2*time.Second, cfg.NextRetryDelay(2))
	assert.Equal(t, 4*time.Second, cfg.NextRetryDelay(3))
	assert.Equal(t, 5*time.Second, cfg.NextRetryDelay(4))
}

func TestWebhookGateway_SignsPayload(t *testing.T) {
	var received Notification
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.True(t, VerifySignature(body, r.Header.Get("X-Jobboard-Signature"), "s3cret"))
		assert.Equal(t, "new", r.Header.Get("X-Jobboard-Event"))
		assert.NoError(t, json.Unmarshal(body, &received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	gw := NewWebhookGateway(server.URL, "s3cret", fastRetry())
	n := NewNotification(jobs.TriggerNew, sampleJob(), []int64{1, 2})
	require.NoError(t, gw.Notify(context.Background(), n))

	assert.Equal(t, n.ID, received.ID)
	assert.Equal(t, []int64{1, 2}, received.Recipients)
}

func TestWebhookGateway_Retries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	gw := NewWebhookGateway(server.URL, "", fastRetry())
	require.NoError(t, gw.Notify(context.Background(), NewNotification(jobs.TriggerClosed, sampleJob(), []int64{1})))
	assert.Equal(t, int32(3), calls.Load())
}

func TestWebhookGateway_GivesUp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	gw := NewWebhookGateway(server.URL, "", fastRetry())
	err := gw.Notify(context.Background(), NewNotification(jobs.TriggerClosed, sampleJob(), []int64{1}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestRedisGateway_Publishes(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	ctx := context.Background()

	sub := client.Subscribe(ctx, DefaultChannel)
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	gw := NewRedisGateway(client, "")
	n := NewNotification(jobs.TriggerModified, sampleJob(), []int64{3})
	require.NoError(t, gw.Notify(ctx, n))

	recvCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	msg, err := sub.ReceiveMessage(recvCtx)
	require.NoError(t, err)

	var got Notification
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, n.ID, got.ID)
	assert.Equal(t, jobs.TriggerModified, got.Kind)
}

func TestMultiGateway(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	ok := GatewayFunc(func(ctx context.Context, n Notification) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, n.ID)
		return nil
	})
	failing := GatewayFunc(func(ctx context.Context, n Notification) error {
		return errors.New("broker down")
	})

	n := NewNotification(jobs.TriggerNew, sampleJob(), []int64{1})
	err := NewMultiGateway(ok, failing, ok).Notify(context.Background(), n)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.Len(t, seen, 2)

	assert.NoError(t, NewMultiGateway(ok).Notify(context.Background(), n))
}

type stubApplicants map[int64][]int64

func (s stubApplicants) ApplicantIDs(ctx context.Context, jobID int64) ([]int64, error) {
	return s[jobID], nil
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *countingRecorder) RecordNotification(kind, status string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = map[string]int{}
	}
	c.counts[kind+"/"+status]++
}

func TestDispatcher(t *testing.T) {
	ctx := context.Background()
	members := rbac.NewMemoryStore()
	require.NoError(t, members.Upsert(ctx, &rbac.Membership{UserID: 1, InstitutionID: 10, Role: rbac.RoleStudent}))
	require.NoError(t, members.Upsert(ctx, &rbac.Membership{UserID: 2, InstitutionID: 10, Role: rbac.RoleProfessor}))
	require.NoError(t, members.Upsert(ctx, &rbac.Membership{UserID: 3, InstitutionID: 10, Role: rbac.RoleStudent}))
	require.NoError(t, members.Upsert(ctx, &rbac.Membership{UserID: 4, InstitutionID: 20, Role: rbac.RoleStudent}))

	var sent []Notification
	gateway := GatewayFunc(func(ctx context.Context, n Notification) error {
		sent = append(sent, n)
		return nil
	})
	recorder := &countingRecorder{}
	logger, _ := test.NewNullLogger()
	d := NewDispatcher(gateway, members, stubApplicants{7: {5, 6}}, recorder, logger)

	t.Run("new job reaches the students of the institution", func(t *testing.T) {
		recipients, err := d.Recipients(ctx, jobs.TriggerNew, sampleJob())
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 3}, recipients)
	})

	t.Run("modified and closed reach applicants", func(t *testing.T) {
		for _, trigger := range []jobs.Trigger{jobs.TriggerModified, jobs.TriggerClosed} {
			recipients, err := d.Recipients(ctx, trigger, sampleJob())
			require.NoError(t, err)
			assert.Equal(t, []int64{5, 6}, recipients)
		}
	})

	t.Run("dispatch emits through the gateway", func(t *testing.T) {
		d.Dispatch(ctx, jobs.TriggerClosed, sampleJob())
		require.Len(t, sent, 1)
		assert.Equal(t, jobs.TriggerClosed, sent[0].Kind)
		assert.Equal(t, 1, recorder.counts["closed/sent"])
	})

	t.Run("no recipients is skipped", func(t *testing.T) {
		job := sampleJob()
		job.ID = 8
		d.Dispatch(ctx, jobs.TriggerModified, job)
		assert.Len(t, sent, 1)
		assert.Equal(t, 1, recorder.counts["modified/skipped"])
	})
}

func TestDispatcher_FailureIsLoggedNotReturned(t *testing.T) {
	logger, hook := test.NewNullLogger()
	failing := GatewayFunc(func(ctx context.Context, n Notification) error {
		return errors.New("smtp relay refused")
	})
	recorder := &countingRecorder{}
	d := NewDispatcher(failing, rbac.NewMemoryStore(), stubApplicants{7: {5}}, recorder, logger)

	d.Dispatch(context.Background(), jobs.TriggerModified, sampleJob())

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "Notification dispatch failed", hook.LastEntry().Message)
	assert.Equal(t, 1, recorder.counts["modified/failed"])
}

func TestLogGateway(t *testing.T) {
	logger, hook := test.NewNullLogger()
	require.NoError(t, NewLogGateway(logger).Notify(context.Background(), NewNotification(jobs.TriggerNew, sampleJob(), []int64{1})))
	assert.Equal(t, "Notification emitted", hook.LastEntry().Message)
	assert.Equal(t, 1, hook.LastEntry().Data["recipients"])
}
