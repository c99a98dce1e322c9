package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/cetep-lnab/ouvidoria/caching"
	"github.com/cetep-lnab/ouvidoria/database"
	"github.com/cetep-lnab/ouvidoria/database/model"
	"github.com/cetep-lnab/ouvidoria/logger"
	"github.com/cetep-lnab/ouvidoria/util/common"
	"github.com/cetep-lnab/ouvidoria/util/crypto"
	"github.com/cetep-lnab/ouvidoria/util/random"
)

const (
	maxPasswordLen = 20
	matriculaLen   = 8
)

type UserService struct {
	store               database.RecordStore
	hasher              crypto.PasswordHasher
	cache               *caching.Cache
	institutionalDomain string
}

// NewUserService wires the user rules. domain is the e-mail suffix accepted
// by institutional registration, e.g. "@enova.educacao.ba.gov.br".
func NewUserService(store database.RecordStore, hasher crypto.PasswordHasher, cache *caching.Cache, domain string) *UserService {
	return &UserService{
		store:               store,
		hasher:              hasher,
		cache:               cache,
		institutionalDomain: strings.ToLower(domain),
	}
}

func validateCredentials(name, password string) error {
	if strings.TrimSpace(name) == "" {
		return common.NewFieldError("name", "nameRequired")
	}
	if password == "" {
		return common.NewFieldError("password", "passwordRequired")
	}
	// bcrypt rejects inputs over 72 bytes
	if utf8.RuneCountInString(password) > maxPasswordLen || len(password) > 72 {
		return common.NewFieldError("password", "passwordTooLong")
	}
	return nil
}

func validMatricula(m string) bool {
	if len(m) != matriculaLen {
		return false
	}
	for i := 0; i < len(m); i++ {
		if m[i] < '0' || m[i] > '9' {
			return false
		}
	}
	return true
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t\r\n")
}

// RegisterInstitutional creates an account identified by an institutional
// e-mail address.
func (s *UserService) RegisterInstitutional(ctx context.Context, name, email, password string) (*model.User, error) {
	if err := validateCredentials(name, password); err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, common.NewFieldError("email", "emailRequired")
	}
	if !strings.HasSuffix(email, s.institutionalDomain) || !validEmail(email) {
		return nil, common.NewFieldError("email", "emailDomain")
	}
	return s.insert(ctx, &model.User{Name: strings.TrimSpace(name), Email: email}, password)
}

// RegisterMatricula creates an account identified by an 8 digit enrollment
// number. notifyEmail is optional; without it the account gets a synthetic
// address that never receives mail.
func (s *UserService) RegisterMatricula(ctx context.Context, name, matricula, notifyEmail, password string) (*model.User, error) {
	if err := validateCredentials(name, password); err != nil {
		return nil, err
	}
	matricula = strings.TrimSpace(matricula)
	if matricula == "" {
		return nil, common.NewFieldError("matricula", "matriculaRequired")
	}
	if !validMatricula(matricula) {
		return nil, common.NewFieldError("matricula", "matriculaFormat")
	}

	existing, err := s.store.FindUserByMatricula(ctx, matricula)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, common.NewConflictError("matricula")
	}

	email := strings.ToLower(strings.TrimSpace(notifyEmail))
	if email != "" {
		if !validEmail(email) {
			return nil, common.NewFieldError("email", "emailInvalid")
		}
	} else {
		email = matricula + model.SyntheticEmailDomain
		taken, err := s.store.FindUserByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if taken != nil {
			email = matricula + "_" + random.Hex(8) + model.SyntheticEmailDomain
		}
	}

	return s.insert(ctx, &model.User{Name: strings.TrimSpace(name), Email: email, Matricula: &matricula}, password)
}

func (s *UserService) insert(ctx context.Context, user *model.User, password string) (*model.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash
	if err := s.store.InsertUser(ctx, user); err != nil {
		return nil, err
	}
	logger.Infof("user registered: %s", user.Id)
	return user, nil
}

// CheckUser authenticates by e-mail or matricula. Unknown logins and wrong
// passwords both yield ErrUnauthorized.
func (s *UserService) CheckUser(ctx context.Context, login, password string) (*model.User, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, common.ErrUnauthorized
	}

	var (
		user *model.User
		err  error
	)
	if strings.Contains(login, "@") {
		user, err = s.store.FindUserByEmail(ctx, login)
	} else {
		user, err = s.store.FindUserByMatricula(ctx, login)
	}
	if err != nil {
		logger.Warning("check user err: ", err)
		return nil, err
	}
	if user == nil || !s.hasher.Compare(user.PasswordHash, password) {
		return nil, common.ErrUnauthorized
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, common.ErrNotFound
	}
	return user, nil
}

// UpdateEmail changes the user's contact address, the only mutable field of
// an account.
func (s *UserService) UpdateEmail(ctx context.Context, user *model.User, email string) (*model.User, error) {
	if user == nil {
		return nil, common.ErrUnauthorized
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if !validEmail(email) {
		return nil, common.NewFieldError("email", "emailInvalid")
	}
	if err := s.store.UpdateUserEmail(ctx, user.Id, email); err != nil {
		return nil, err
	}
	s.cache.DeleteUserSessions(user.Id)
	return s.GetUser(ctx, user.Id)
}
