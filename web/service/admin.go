package service

import (
	"errors"

	"github.com/cetep-lnab/ouvidoria/util/common"
	"github.com/cetep-lnab/ouvidoria/util/crypto"

	"github.com/xlzd/gotp"
)

var ErrAdminNotConfigured = errors.New("admin credentials not configured")

// AdminService checks the single administrator credential taken from the
// configuration. When a TOTP secret is set the current code is required too.
type AdminService struct {
	username   string
	password   string
	totpSecret string
}

func NewAdminService(username, password, totpSecret string) *AdminService {
	return &AdminService{
		username:   username,
		password:   password,
		totpSecret: totpSecret,
	}
}

func (s *AdminService) Enabled() bool {
	return s.username != "" && s.password != ""
}

func (s *AdminService) TwoFactorEnabled() bool {
	return s.totpSecret != ""
}

func (s *AdminService) CheckAdmin(username, password, code string) error {
	if !s.Enabled() {
		return ErrAdminNotConfigured
	}
	userOk := crypto.EqualConstantTime(username, s.username)
	passOk := crypto.EqualConstantTime(password, s.password)
	if !userOk || !passOk {
		return common.ErrUnauthorized
	}
	if s.TwoFactorEnabled() && !s.checkCode(code) {
		return common.ErrUnauthorized
	}
	return nil
}

func (s *AdminService) checkCode(code string) bool {
	if code == "" {
		return false
	}
	return crypto.EqualConstantTime(code, gotp.NewDefaultTOTP(s.totpSecret).Now())
}
