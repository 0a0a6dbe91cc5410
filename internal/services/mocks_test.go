package services

import (
	"context"
	"sync"

	"github.com/publicart-catalog/backend/internal/ratelimit"
)

var _ Mailer = &mailerMock{}

type mailerMock struct {
	SendFunc func(ctx context.Context, to, subject, body string) error

	calls struct {
		Send []struct {
			To      string
			Subject string
			Body    string
		}
	}
	lockSend sync.RWMutex
}

func (mock *mailerMock) Send(ctx context.Context, to, subject, body string) error {
	if mock.SendFunc == nil {
		panic("mailerMock.SendFunc: method is nil but Mailer.Send was just called")
	}
	callInfo := struct {
		To      string
		Subject string
		Body    string
	}{To: to, Subject: subject, Body: body}
	mock.lockSend.Lock()
	mock.calls.Send = append(mock.calls.Send, callInfo)
	mock.lockSend.Unlock()
	return mock.SendFunc(ctx, to, subject, body)
}

func (mock *mailerMock) SendCalls() []struct {
	To      string
	Subject string
	Body    string
} {
	mock.lockSend.RLock()
	calls := mock.calls.Send
	mock.lockSend.RUnlock()
	return calls
}

var _ rateLimiter = &rateLimiterMock{}

type rateLimiterMock struct {
	AllowFunc func(ctx context.Context, rule ratelimit.Rule, key string) error

	calls struct {
		Allow []struct {
			Rule ratelimit.Rule
			Key  string
		}
	}
	lockAllow sync.RWMutex
}

func (mock *rateLimiterMock) Allow(ctx context.Context, rule ratelimit.Rule, key string) error {
	if mock.AllowFunc == nil {
		panic("rateLimiterMock.AllowFunc: method is nil but rateLimiter.Allow was just called")
	}
	callInfo := struct {
		Rule ratelimit.Rule
		Key  string
	}{Rule: rule, Key: key}
	mock.lockAllow.Lock()
	mock.calls.Allow = append(mock.calls.Allow, callInfo)
	mock.lockAllow.Unlock()
	return mock.AllowFunc(ctx, rule, key)
}

func (mock *rateLimiterMock) AllowCalls() []struct {
	Rule ratelimit.Rule
	Key  string
} {
	mock.lockAllow.RLock()
	calls := mock.calls.Allow
	mock.lockAllow.RUnlock()
	return calls
}

func allowAll() *rateLimiterMock {
	return &rateLimiterMock{AllowFunc: func(context.Context, ratelimit.Rule, string) error { return nil }}
}
