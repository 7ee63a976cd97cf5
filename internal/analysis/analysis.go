// Package analysis produces the compliance finding shown beside a document.
// The shipped Heuristic is a stand-in for a real analysis service.
package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/JaimeStill/isoone/internal/backend"
)

// Status classifies a finding.
type Status string

const (
	StatusWarning     Status = "warning"
	StatusSuccess     Status = "success"
	StatusUnavailable Status = "unavailable"
)

// Finding is the outcome of analyzing one document.
type Finding struct {
	Status  Status
	Message string
	Detail  string
	Action  string
}

// Analyzer evaluates a document for compliance gaps.
type Analyzer interface {
	Analyze(ctx context.Context, doc backend.Detail) (Finding, error)
}

// Heuristic waits Delay and then classifies the document by type.
type Heuristic struct {
	Delay time.Duration
}

// Analyze blocks for h.Delay unless ctx ends first.
func (h Heuristic) Analyze(ctx context.Context, doc backend.Detail) (Finding, error) {
	if h.Delay > 0 {
		timer := time.NewTimer(h.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Finding{}, ctx.Err()
		case <-timer.C:
		}
	}
	return Classify(doc.Summary), nil
}

// Classify flags policies as lacking linked procedures and passes everything else.
func Classify(doc backend.Summary) Finding {
	if doc.Type != backend.TypePolicy {
		return Finding{
			Status:  StatusSuccess,
			Message: "Cumplimiento Normativo",
			Detail:  "El documento cubre correctamente los requisitos del control asignado.",
		}
	}

	control := doc.PrimaryControl()
	if control == "" {
		control = "X"
	}
	return Finding{
		Status:  StatusWarning,
		Message: "Riesgo de Auditoría detectado.",
		Detail:  fmt.Sprintf("Esta Política menciona controles del anexo A.%s, pero no se encontró evidencia técnica (Procedimientos) vinculada.", control),
		Action:  "Generar Borrador de Procedimiento",
	}
}

// Traceability describes where a document sits in the documentation hierarchy.
type Traceability struct {
	Gaps []string
	Note string
}

// Trace returns the expected child documents of a policy, or a note for
// operational documents.
func Trace(doc backend.Summary) Traceability {
	if doc.Type == backend.TypePolicy {
		return Traceability{Gaps: []string{"Procedimiento Técnico", "Evidencia de Registro"}}
	}
	return Traceability{Note: "Documento operativo. Verifique su vinculación con la Política padre."}
}
