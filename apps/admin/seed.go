package main

import (
	"context"
	"fmt"

	"github.com/escolarhq/escolar/core"
	"github.com/escolarhq/escolar/core/institution"
)

var sampleInstitutions = []institution.NewInstitution{
	{Name: "Colegio San Martín", Address: "Av. Libertador 1234, Buenos Aires", Phone: "+54 11 4444-5555", Email: "info@sanmartin.edu"},
	{Name: "Instituto Belgrano", Address: "Calle Mitre 567, Rosario", Phone: "+54 341 555-0199", Email: "contacto@belgrano.edu"},
	{Name: "Escuela Normal Sarmiento", Address: "Av. Rivadavia 890, Córdoba", Email: "secretaria@sarmiento.edu"},
	{Name: "Colegio del Sur", Phone: "+54 291 400-2211"},
	{Name: "Liceo Moreno", Address: "Ruta 8 km 42, Moreno", Email: "admin@liceomoreno.edu"},
}

// seed loads a handful of sample institutions; duplicates are skipped so the
// command can be re-run.
func (cli *commandLine) seed() error {
	ctx := context.Background()

	var created int
	for _, ni := range sampleInstitutions {
		if _, err := cli.instSvc.Create(ctx, ni); err != nil {
			if _, ok := err.(*core.ValidationError); ok { // already seeded
				continue
			}
			fmt.Printf("omitiendo %q: %v\n", ni.Name, err)
			continue
		}
		created++
	}
	fmt.Printf("%d instituciones creadas\n", created)
	return nil
}
