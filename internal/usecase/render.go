package usecase

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xavierca1/zap-relay/internal/entity"
)

var renderPlaceholderRe = regexp.MustCompile(`\$\{([^}]+)\}`)

// Render resolve os placeholders ${namespace.campo} do corpo do template
// contra os snapshots. Função pura: mesmo input, mesmo output, sempre.
//
// Placeholder que não resolve é erro fatal (TemplateRenderError) — nada de
// deixar `${object.x}` literal na mensagem ou substituir por vazio.
func Render(body string, rc entity.RenderContext) (string, error) {
	var renderErr error

	rendered := renderPlaceholderRe.ReplaceAllStringFunc(body, func(match string) string {
		if renderErr != nil {
			return match
		}

		expr := match[2 : len(match)-1] // tira ${ e }
		ns, field, found := strings.Cut(expr, ".")
		if !found || field == "" {
			renderErr = &entity.TemplateRenderError{Placeholder: expr}
			return match
		}

		value, ok := rc.Lookup(ns, field)
		if !ok || value == nil {
			renderErr = &entity.TemplateRenderError{Placeholder: expr}
			return match
		}

		return formatValue(value)
	})

	if renderErr != nil {
		return "", renderErr
	}
	return rendered, nil
}

// formatValue é a regra fixa de formatação de exibição do contrato do
// renderer. Mexer aqui muda a mensagem final de todo mundo — cuidado.
func formatValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		if v {
			return "Yes"
		}
		return "No"
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		// Datas "puras" (meia-noite) viram só a data
		if v.Hour() == 0 && v.Minute() == 0 && v.Second() == 0 {
			return v.Format("02/01/2006")
		}
		return v.Format("02/01/2006 15:04")
	default:
		return fmt.Sprintf("%v", v)
	}
}
