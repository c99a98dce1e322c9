package model

import (
	"strings"
	"time"
)

// DefaultTipo is used when a report is submitted without a kind.
const DefaultTipo = "sugestão"

// SyntheticEmailDomain marks addresses generated for matricula-only accounts.
// Nothing is ever delivered to them.
const SyntheticEmailDomain = "@matricula.local"

type User struct {
	Id           string    `json:"id" gorm:"primaryKey;type:text"`
	Name         string    `json:"name" gorm:"not null"`
	Email        string    `json:"email" gorm:"not null;uniqueIndex"`
	Matricula    *string   `json:"matricula,omitempty" gorm:"uniqueIndex"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;not null"`
	CreatedAt    time.Time `json:"createdAt" gorm:"not null"`
}

// HasRealEmail reports whether mail can be delivered to the user.
func (u *User) HasRealEmail() bool {
	return u.Email != "" && !strings.HasSuffix(strings.ToLower(u.Email), SyntheticEmailDomain)
}

// Report is one manifestation submitted by a user.
type Report struct {
	Id        string    `json:"id" gorm:"primaryKey;type:text"`
	UserId    string    `json:"userId,omitempty" gorm:"not null;index"`
	Tipo      string    `json:"tipo" gorm:"not null"`
	Titulo    string    `json:"titulo" gorm:"not null"`
	Mensagem  string    `json:"mensagem" gorm:"not null"`
	Turma     string    `json:"turma"`
	AlunoNome string    `json:"alunoNome" gorm:"column:aluno_nome"`
	Anonimo   bool      `json:"anonimo" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null;index"`
}

// Response is an administrator answer to a report. The newest one for a
// report is the one shown.
type Response struct {
	Id           string    `json:"id" gorm:"primaryKey;type:text"`
	ReportId     string    `json:"reportId" gorm:"not null;index"`
	AdminMessage string    `json:"adminMessage" gorm:"column:admin_message;not null"`
	CreatedAt    time.Time `json:"createdAt" gorm:"not null"`
}

// Session binds an opaque token to a user. A nil ExpiresAt never expires.
type Session struct {
	Token     string     `json:"-" gorm:"primaryKey;type:text"`
	UserId    string     `json:"userId" gorm:"not null;index"`
	CreatedAt time.Time  `json:"createdAt" gorm:"not null"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty" gorm:"index"`
}

func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}
