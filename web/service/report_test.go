package service

import (
	"context"
	"testing"

	"github.com/cetep-lnab/ouvidoria/database/model"
	"github.com/cetep-lnab/ouvidoria/util/common"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateReport(t *testing.T) {
	ctx := context.Background()
	env := setup(t)
	u := env.register(t, "a@enova.educacao.ba.gov.br")

	r, err := env.reports.Create(ctx, UserActor(u), ReportInput{
		Titulo:    "  Banheiro quebrado ",
		Mensagem:  "Sem água desde segunda",
		Turma:     "3A",
		AlunoNome: "Maria",
	})
	require.NoError(t, err)
	assert.Equal(t, u.Id, r.UserId)
	assert.Equal(t, model.DefaultTipo, r.Tipo)
	assert.Equal(t, "Banheiro quebrado", r.Titulo)
	assert.Equal(t, "3A", r.Turma)
	assert.Equal(t, "Maria", r.AlunoNome)
	assert.Len(t, env.notifier.created, 1)

	tests := []struct {
		name  string
		in    ReportInput
		field string
	}{
		{"blank title", ReportInput{Titulo: "   ", Mensagem: "m"}, "titulo"},
		{"blank message", ReportInput{Titulo: "t", Mensagem: "\n\t"}, "mensagem"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.reports.Create(ctx, UserActor(u), tt.in)
			assert.ErrorIs(t, err, common.ErrValidation)
			assert.Equal(t, tt.field, fieldOf(t, err).Field)
		})
	}

	_, err = env.reports.Create(ctx, Actor{}, ReportInput{Titulo: "t", Mensagem: "m"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	_, err = env.reports.Create(ctx, AdminActor(), ReportInput{Titulo: "t", Mensagem: "m"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	mine, err := env.reports.ListMine(ctx, UserActor(u))
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	assert.Len(t, env.notifier.created, 1)
}

func TestAnonymousReportClearsIdentity(t *testing.T) {
	ctx := context.Background()
	env := setup(t)
	u := env.register(t, "a@enova.educacao.ba.gov.br")

	r, err := env.reports.Create(ctx, UserActor(u), ReportInput{
		Tipo:      "denúncia",
		Titulo:    "t",
		Mensagem:  "m",
		Turma:     "3A",
		AlunoNome: "Maria",
		Anonimo:   true,
	})
	require.NoError(t, err)

	stored, err := env.store.GetReport(ctx, r.Id)
	require.NoError(t, err)
	assert.True(t, stored.Anonimo)
	assert.Empty(t, stored.Turma)
	assert.Empty(t, stored.AlunoNome)
	// ownership is kept so the author can still see and delete it
	assert.Equal(t, u.Id, stored.UserId)

	detail, err := env.reports.Get(ctx, AdminActor(), r.Id)
	require.NoError(t, err)
	require.NotNil(t, detail.Author)
	assert.Equal(t, AnonymousName, detail.Author.Name)
	assert.Equal(t, AnonymousEmail, detail.Author.Email)
	assert.Equal(t, "🚨", detail.TipoEmoji)
	assert.Equal(t, "denuncia", detail.TipoClass)
}

func TestAdminViewHidesAnonymousOwner(t *testing.T) {
	ctx := context.Background()
	env := setup(t)
	u := env.register(t, "a@enova.educacao.ba.gov.br")

	anon, err := env.reports.Create(ctx, UserActor(u), ReportInput{Titulo: "anon", Mensagem: "m", Anonimo: true})
	require.NoError(t, err)
	named, err := env.reports.Create(ctx, UserActor(u), ReportInput{Titulo: "named", Mensagem: "m"})
	require.NoError(t, err)

	detail, err := env.reports.Get(ctx, AdminActor(), anon.Id)
	require.NoError(t, err)
	assert.Empty(t, detail.UserId)
	raw, err := json.Marshal(detail)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), u.Id)
	assert.Contains(t, string(raw), AnonymousName)

	all, err := env.reports.ListAll(ctx, AdminActor())
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, s := range all {
		raw, err := json.Marshal(s)
		require.NoError(t, err)
		if s.Id == anon.Id {
			assert.NotContains(t, string(raw), u.Id)
		} else {
			assert.Contains(t, string(raw), u.Id)
		}
	}

	namedDetail, err := env.reports.Get(ctx, AdminActor(), named.Id)
	require.NoError(t, err)
	assert.Equal(t, u.Id, namedDetail.UserId)

	// the stored row and the owner's own view keep the id
	stored, err := env.store.GetReport(ctx, anon.Id)
	require.NoError(t, err)
	assert.Equal(t, u.Id, stored.UserId)
	mine, err := env.reports.Get(ctx, UserActor(u), anon.Id)
	require.NoError(t, err)
	assert.Equal(t, u.Id, mine.UserId)
}

func TestReportOwnership(t *testing.T) {
	ctx := context.Background()
	env := setup(t)
	owner := env.register(t, "owner@enova.educacao.ba.gov.br")
	other := env.register(t, "other@enova.educacao.ba.gov.br")

	r, err := env.reports.Create(ctx, UserActor(owner), ReportInput{Titulo: "t", Mensagem: "m"})
	require.NoError(t, err)

	detail, err := env.reports.Get(ctx, UserActor(owner), r.Id)
	require.NoError(t, err)
	assert.Nil(t, detail.Author)
	assert.Nil(t, detail.Response)

	// denied and missing look the same
	_, errDenied := env.reports.Get(ctx, UserActor(other), r.Id)
	_, errMissing := env.reports.Get(ctx, UserActor(other), "missing")
	assert.ErrorIs(t, errDenied, common.ErrNotFound)
	assert.ErrorIs(t, errMissing, common.ErrNotFound)

	assert.ErrorIs(t, env.reports.Delete(ctx, UserActor(other), r.Id), common.ErrNotFound)
	_, err = env.reports.Get(ctx, UserActor(owner), r.Id)
	assert.NoError(t, err)

	_, err = env.reports.Get(ctx, Actor{}, r.Id)
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	otherList, err := env.reports.ListMine(ctx, UserActor(other))
	require.NoError(t, err)
	assert.Empty(t, otherList)

	_, err = env.reports.ListAll(ctx, UserActor(owner))
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	require.NoError(t, env.reports.Delete(ctx, UserActor(owner), r.Id))
	assert.ErrorIs(t, env.reports.Delete(ctx, UserActor(owner), r.Id), common.ErrNotFound)
}

func TestAdminDeleteCascades(t *testing.T) {
	ctx := context.Background()
	env := setup(t)
	u := env.register(t, "a@enova.educacao.ba.gov.br")
	r, err := env.reports.Create(ctx, UserActor(u), ReportInput{Titulo: "t", Mensagem: "m"})
	require.NoError(t, err)
	_, err = env.reports.Respond(ctx, AdminActor(), r.Id, "resolvido")
	require.NoError(t, err)

	require.NoError(t, env.reports.Delete(ctx, AdminActor(), r.Id))

	resp, err := env.store.GetResponseByReport(ctx, r.Id)
	assert.NoError(t, err)
	assert.Nil(t, resp)
	_, err = env.reports.Get(ctx, AdminActor(), r.Id)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRespondNotifiesRealOwner(t *testing.T) {
	for _, anonimo := range []bool{false, true} {
		name := "identified"
		if anonimo {
			name = "anonymous"
		}
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			env := setup(t)
			u, err := env.users.RegisterMatricula(ctx, "Aluno", "12345678", "u1@example.com", "abc")
			require.NoError(t, err)

			r, err := env.reports.Create(ctx, UserActor(u), ReportInput{Titulo: "t", Mensagem: "m", Anonimo: anonimo})
			require.NoError(t, err)

			resp, err := env.reports.Respond(ctx, AdminActor(), r.Id, "  Obrigado pelo retorno  ")
			require.NoError(t, err)
			assert.Equal(t, "Obrigado pelo retorno", resp.AdminMessage)

			require.Len(t, env.notifier.answered, 1)
			call := env.notifier.answered[0]
			require.NotNil(t, call.Owner)
			assert.Equal(t, []string{"u1@example.com"}, []string{call.Owner.Email})
			assert.Equal(t, r.Id, call.Report.Id)

			detail, err := env.reports.Get(ctx, UserActor(u), r.Id)
			require.NoError(t, err)
			require.NotNil(t, detail.Response)
			assert.Equal(t, resp.Id, detail.Response.Id)
		})
	}
}

func TestRespondRules(t *testing.T) {
	ctx := context.Background()
	env := setup(t)
	u := env.register(t, "a@enova.educacao.ba.gov.br")
	r, err := env.reports.Create(ctx, UserActor(u), ReportInput{Titulo: "t", Mensagem: "m"})
	require.NoError(t, err)

	_, err = env.reports.Respond(ctx, UserActor(u), r.Id, "eu mesmo")
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = env.reports.Respond(ctx, Actor{}, r.Id, "x")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	_, err = env.reports.Respond(ctx, AdminActor(), r.Id, "   ")
	assert.ErrorIs(t, err, common.ErrValidation)
	_, err = env.reports.Respond(ctx, AdminActor(), "missing", "x")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Empty(t, env.notifier.answered)

	_, err = env.reports.Respond(ctx, AdminActor(), r.Id, "primeira")
	require.NoError(t, err)
	second, err := env.reports.Respond(ctx, AdminActor(), r.Id, "segunda")
	require.NoError(t, err)

	detail, err := env.reports.Get(ctx, AdminActor(), r.Id)
	require.NoError(t, err)
	assert.Equal(t, second.Id, detail.Response.Id)
	require.NotNil(t, detail.Author)
	assert.Equal(t, u.Email, detail.Author.Email)
}

func TestListAllWithResponseFlag(t *testing.T) {
	ctx := context.Background()
	env := setup(t)
	a := env.register(t, "a@enova.educacao.ba.gov.br")
	b := env.register(t, "b@enova.educacao.ba.gov.br")

	ra, err := env.reports.Create(ctx, UserActor(a), ReportInput{Tipo: "elogio", Titulo: "a", Mensagem: "m"})
	require.NoError(t, err)
	_, err = env.reports.Create(ctx, UserActor(b), ReportInput{Tipo: "reclamação", Titulo: "b", Mensagem: "m"})
	require.NoError(t, err)
	_, err = env.reports.Respond(ctx, AdminActor(), ra.Id, "ok")
	require.NoError(t, err)

	all, err := env.reports.ListAll(ctx, AdminActor())
	require.NoError(t, err)
	require.Len(t, all, 2)
	flags := map[string]bool{}
	for _, s := range all {
		flags[s.Titulo] = s.HasResponse
	}
	assert.True(t, flags["a"])
	assert.False(t, flags["b"])

	mine, err := env.reports.ListMine(ctx, UserActor(a))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.True(t, mine[0].HasResponse)
	assert.Equal(t, "⭐", mine[0].TipoEmoji)
}
