package api

import (
	"html/template"
	"net/http"
)

func sendHTML(w http.ResponseWriter, status int, tmpl *template.Template, data interface{}) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	return tmpl.Execute(w, data)
}

var landingTemplate = template.Must(template.New("landing").Parse(`<!doctype html>
<html lang="pt-BR">
<head><meta charset="utf-8"><title>WhatsApp Embedded Signup</title></head>
<body>
  <h1>WhatsApp Embedded Signup</h1>
  <p>Harness de integração para o fluxo de cadastro embutido da Meta.</p>
  <ul>
    <li><a href="/connect?mode=es">Iniciar embedded signup</a></li>
    <li><a href="/connect?mode=login">Iniciar login simples</a></li>
    <li><a href="/try-send">Enviar mensagem de teste</a></li>
  </ul>
  <p><small>{{if .Version}}versão {{.Version}}{{end}}</small></p>
</body>
</html>
`))

var trySendTemplate = template.Must(template.New("trysend").Parse(`<!doctype html>
<html lang="pt-BR">
<head><meta charset="utf-8"><title>Enviar mensagem de teste</title></head>
<body>
  <h1>Enviar mensagem de teste</h1>
  <form id="send-form">
    <label>Phone Number ID <input name="phone_number_id" value="{{.PhoneNumberID}}"></label><br>
    <label>Destinatário (E.164) <input name="to" placeholder="+5511999999999"></label><br>
    <label>Token <input name="token" value="{{.AccessToken}}"></label><br>
    <label>Texto <input name="text" placeholder="Olá!"></label><br>
    <button type="submit">Enviar</button>
  </form>
  <pre id="result"></pre>
  <script>
    document.getElementById("send-form").addEventListener("submit", async (ev) => {
      ev.preventDefault();
      const form = new FormData(ev.target);
      const res = await fetch("/whatsapp/send-text", {
        method: "POST",
        headers: {"Content-Type": "application/json"},
        body: JSON.stringify(Object.fromEntries(form)),
      });
      document.getElementById("result").textContent = await res.text();
    });
  </script>
</body>
</html>
`))

var callbackErrorTemplate = template.Must(template.New("cberror").Parse(`<!doctype html>
<html lang="pt-BR">
<head><meta charset="utf-8"><title>Falha na autorização</title></head>
<body>
  <h1>Falha na autorização</h1>
  <p>{{.Guidance}}</p>
  <table>
    {{if .Error}}<tr><td>error</td><td>{{.Error}}</td></tr>{{end}}
    {{if .Reason}}<tr><td>error_reason</td><td>{{.Reason}}</td></tr>{{end}}
    {{if .Description}}<tr><td>error_description</td><td>{{.Description}}</td></tr>{{end}}
  </table>
  {{if .RawPayload}}<h2>Resposta do provedor</h2><pre>{{.RawPayload}}</pre>{{end}}
  <p><a href="/">Voltar</a></p>
</body>
</html>
`))

var callbackReportTemplate = template.Must(template.New("cbreport").Parse(`<!doctype html>
<html lang="pt-BR">
<head><meta charset="utf-8"><title>Diagnóstico do signup</title></head>
<body>
  {{if .OverallOK}}<h1>Autenticação válida</h1>{{else}}<h1>Autenticação inválida</h1>{{end}}

  <h2>Fluxo</h2>
  <table>
    <tr><td>modo</td><td>{{.Mode}}</td></tr>
    <tr><td>tenant</td><td>{{.TenantID}}</td></tr>
    {{if .StateFallback}}<tr><td>state</td><td>{{.StateFallback}}</td></tr>{{end}}
  </table>

  <h2>Token</h2>
  <table>
    <tr><td>prévia</td><td><code>{{.TokenPreview}}</code></td></tr>
    {{if .TokenType}}<tr><td>tipo</td><td>{{.TokenType}}</td></tr>{{end}}
    <tr><td>válido</td><td>{{.TokenValid}}</td></tr>
    <tr><td>app corresponde</td><td>{{.AppIDMatches}}</td></tr>
    <tr><td>expira em</td><td>{{.ExpiresAt}}</td></tr>
    <tr><td>escopos</td><td>{{.Scopes}}</td></tr>
  </table>
  {{if .DebugError}}<pre>{{.DebugError}}</pre>{{end}}

  <h2>Identidade</h2>
  {{if .Identity}}
  <table>
    <tr><td>id</td><td>{{.Identity.ID}}</td></tr>
    <tr><td>nome</td><td>{{.Identity.Name}}</td></tr>
  </table>
  {{else}}<pre>{{.IdentityError}}</pre>{{end}}

  <h2>Contas business</h2>
  <pre>{{.Businesses}}</pre>

  <p><a href="/try-send">Enviar mensagem de teste</a> &middot; <a href="/">Voltar</a></p>
</body>
</html>
`))
