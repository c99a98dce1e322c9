package service

import (
	"strings"

	"github.com/cetep-lnab/ouvidoria/database/model"
)

// Actor is whoever performs a call: a logged-in user, the administrator, or
// nobody. Being admin is a capability of the request, never a user field.
type Actor struct {
	User  *model.User
	Admin bool
}

func UserActor(u *model.User) Actor { return Actor{User: u} }

func AdminActor() Actor { return Actor{Admin: true} }

func (a Actor) IsAnonymous() bool {
	return a.User == nil && !a.Admin
}

func (a Actor) owns(r *model.Report) bool {
	return a.User != nil && r != nil && r.UserId == a.User.Id
}

var tipoEmoji = map[string]string{
	"denúncia":   "🚨",
	"denuncia":   "🚨",
	"reclamação": "⚠️",
	"reclamacao": "⚠️",
	"elogio":     "⭐",
	"sugestão":   "💡",
	"sugestao":   "💡",
}

var tipoClass = map[string]string{
	"denúncia":   "denuncia",
	"denuncia":   "denuncia",
	"reclamação": "reclamacao",
	"reclamacao": "reclamacao",
	"elogio":     "elogio",
	"sugestão":   "sugestao",
	"sugestao":   "sugestao",
}

// TipoEmoji returns the icon shown next to a report kind.
func TipoEmoji(tipo string) string {
	if e, ok := tipoEmoji[strings.ToLower(strings.TrimSpace(tipo))]; ok {
		return e
	}
	return "📋"
}

// TipoClass returns an ASCII style class for a report kind.
func TipoClass(tipo string) string {
	if c, ok := tipoClass[strings.ToLower(strings.TrimSpace(tipo))]; ok {
		return c
	}
	return "outro"
}
