package service

import (
	"context"
	"testing"
	"time"

	"github.com/iliyamo/eventdesk/internal/model"
	"github.com/iliyamo/eventdesk/internal/repository/memstore"
	"github.com/iliyamo/eventdesk/internal/utils"
)

var testNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

const testSecret = "service-test-secret"

// fixture is one variant's worth of services over in-memory stores.
type fixture struct {
	principals memstore.Principals
	resources  memstore.Resources
	notifier   *memstore.Outbox
	accounts   *Accounts
	sessions   *Sessions
	recovery   *Recovery
	items      *Resources
	now        time.Time
}

type fixtureOption func(*AccountsConfig)

func openRegistration(c *AccountsConfig) { c.OpenRegistration = true }

func newFixture(t *testing.T, v model.Variant, opts ...fixtureOption) *fixture {
	t.Helper()
	store := memstore.New(v)
	f := &fixture{now: testNow, principals: store.Principals(), resources: store.Resources(), notifier: &memstore.Outbox{}}
	cfg := AccountsConfig{
		BcryptCost: 4,
		Mailer:     Mailer{ProjectName: "eventdesk", FrontendHost: "http://localhost:5173"},
	}
	for _, o := range opts {
		o(&cfg)
	}
	clock := utils.WithClock(func() time.Time { return f.now })
	f.accounts = NewAccounts(f.principals, cfg, f.notifier, nil)
	f.sessions = NewSessions(f.accounts, utils.NewSessionCodec(testSecret, clock), time.Hour, nil)
	f.recovery = NewRecovery(f.accounts, utils.NewResetCodec(testSecret, 48*time.Hour, clock), nil)
	f.items = NewResources(v, f.resources, nil)
	return f
}

func (f *fixture) signup(t *testing.T, email string, privileged bool) *model.Principal {
	t.Helper()
	p, err := f.accounts.Signup(context.Background(), SignupInput{Email: email, Password: "pw-" + email, IsPrivileged: privileged})
	if err != nil {
		t.Fatalf("signup %s: %v", email, err)
	}
	return p
}
