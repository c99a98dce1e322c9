// Package entity defines the request and response shapes of the web API.
package entity

// Msg is the envelope of every API answer.
type Msg struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg"`
	Obj     any    `json:"obj"`
}

// LoginForm accepts either an institutional e-mail or a matricula in Login.
type LoginForm struct {
	Login    string `json:"login" form:"login"`
	Password string `json:"password" form:"password"`
}

const (
	RegisterInstitutional = "enova"
	RegisterMatricula     = "matricula"
)

type RegisterForm struct {
	Type        string `json:"tipoRegistro" form:"tipo_registro"`
	Name        string `json:"name" form:"name"`
	Password    string `json:"password" form:"password"`
	Email       string `json:"email" form:"email_enova"`
	Matricula   string `json:"matricula" form:"matricula"`
	NotifyEmail string `json:"emailNotificacao" form:"email_notificacao"`
}

type EmailForm struct {
	Email string `json:"email" form:"email"`
}

type ReportForm struct {
	Tipo      string `json:"tipo" form:"tipo"`
	Titulo    string `json:"titulo" form:"titulo"`
	Mensagem  string `json:"mensagem" form:"mensagem"`
	Turma     string `json:"turma" form:"turma"`
	AlunoNome string `json:"alunoNome" form:"aluno"`
	Anonimo   bool   `json:"anonimo" form:"anonimo"`
}

type RespondForm struct {
	AdminMessage string `json:"adminMessage" form:"admin_message"`
}

type AdminLoginForm struct {
	Username      string `json:"username" form:"username"`
	Password      string `json:"password" form:"password"`
	TwoFactorCode string `json:"twoFactorCode" form:"twoFactorCode"`
}

// Profile is the logged-in user as shown by /me.
type Profile struct {
	Id            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Matricula     string `json:"matricula,omitempty"`
	ReceivesEmail bool   `json:"receivesEmail"`
	CreatedAt     string `json:"createdAt"`
}
