package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/cetep-lnab/ouvidoria/caching"
	"github.com/cetep-lnab/ouvidoria/database"
	"github.com/cetep-lnab/ouvidoria/database/model"
	"github.com/cetep-lnab/ouvidoria/util/crypto"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testDomain = "@enova.educacao.ba.gov.br"

type testEnv struct {
	db       *gorm.DB
	store    database.RecordStore
	cache    *caching.Cache
	users    *UserService
	sessions *SessionService
	reports  ReportService
	notifier *recordingNotifier
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	conn, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(conn) })

	store := database.NewStore(conn)
	cache := caching.NewCache(0)
	notifier := &recordingNotifier{}
	return &testEnv{
		db:       conn,
		store:    store,
		cache:    cache,
		users:    NewUserService(store, crypto.BcryptHasher{Cost: bcrypt.MinCost}, cache, testDomain),
		sessions: NewSessionService(store, cache, 0),
		reports:  NewReportService(store, notifier),
		notifier: notifier,
	}
}

func (e *testEnv) register(t *testing.T, email string) *model.User {
	t.Helper()
	u, err := e.users.RegisterInstitutional(context.Background(), "Aluno Teste", email, "senha123")
	require.NoError(t, err)
	return u
}

type answeredCall struct {
	Report   *model.Report
	Response *model.Response
	Owner    *model.User
}

type recordingNotifier struct {
	mu       sync.Mutex
	created  []*model.Report
	answered []answeredCall
}

func (n *recordingNotifier) ReportCreated(report *model.Report, _ *model.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = append(n.created, report)
}

func (n *recordingNotifier) ReportAnswered(report *model.Report, resp *model.Response, owner *model.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.answered = append(n.answered, answeredCall{Report: report, Response: resp, Owner: owner})
}

type recordingSender struct {
	mu    sync.Mutex
	mails []*Mail
	err   error
	block chan struct{}
}

func (s *recordingSender) Send(ctx context.Context, m *Mail) error {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mails = append(s.mails, m)
	return s.err
}

func (s *recordingSender) sent() []*Mail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Mail(nil), s.mails...)
}
