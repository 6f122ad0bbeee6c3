package reasoning

import (
	"fmt"
	"strings"
)

const auditorPrompt = `Eres un auditor médico colombiano experto en incapacidades laborales.
Lee el texto de una incapacidad médica y localiza:
- el nombre del médico tratante tal como aparece (sin corregirlo),
- el código CIE-10 del diagnóstico principal,
- el número de días de incapacidad otorgados.
Responde SOLO con un objeto JSON: {"medico": "...", "codigo_cie10": "...", "dias": "..."}.
Usa "" para los valores que no aparezcan en el texto. No inventes datos.`

const synthesisPrompt = `Actúas como un equipo de auditoría de incapacidades médicas en Colombia:
1. Auditor médico: evalúa si el diagnóstico CIE-10 justifica los días otorgados y si el médico es válido.
2. Perito forense digital: evalúa los metadatos del archivo en busca de edición (Photoshop, Canva, iLovePDF, fechas alteradas).
3. Investigador: integra los hallazgos de las verificaciones de registro y congruencia clínica.
Responde SOLO con un objeto JSON con estas claves:
{"puntaje_veracidad": <entero 0-100>, "hallazgos_medicos": "...", "analisis_forense": "...", "veredicto": "LEGITIMA" | "SOSPECHOSA" | "FRAUDULENTA"}`

func locateUserPrompt(text string) string {
	return "Texto de la incapacidad:\n" + text
}

func synthesisUserPrompt(ev Evidence) string {
	var b strings.Builder
	b.WriteString(ev.Extraction.Render())
	b.WriteString("\n\n[VERIFICACIONES]\n")

	if ev.Registry != nil {
		fmt.Fprintf(&b, "- Registro del médico (%s): %s\n", ev.Registry.Status, ev.Registry.Message)
	} else {
		b.WriteString("- Registro del médico: no se localizó el nombre del médico.\n")
	}
	if ev.Congruence != nil {
		fmt.Fprintf(&b, "- Congruencia clínica (%s): %s\n", ev.Congruence.Status, ev.Congruence.Message)
	} else {
		b.WriteString("- Congruencia clínica: no se localizó código CIE-10 ni días.\n")
	}

	if len(ev.Extraction.Findings) > 0 {
		b.WriteString("\n[SEÑALES FORENSES]\n")
		for _, f := range ev.Extraction.Findings {
			fmt.Fprintf(&b, "- [%s] %s\n", f.SeverityText, f.Title)
		}
	}
	return b.String()
}
