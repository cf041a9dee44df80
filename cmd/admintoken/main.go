// admintoken emite un JWT con rol admin para las rutas /api/admin del back-office.
//
// Uso: go run ./cmd/admintoken -user ops@tienda.co [-role admin] [-minutes 60]
// Toma JWT_SECRET y JWT_ISSUER de la misma configuración que la API.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jhoicas/tienda-stock-api/pkg/config"
	"github.com/jhoicas/tienda-stock-api/pkg/jwt"
)

func main() {
	user := flag.String("user", "", "identificador del operador (obligatorio)")
	role := flag.String("role", "admin", "rol del token")
	minutes := flag.Int("minutes", 0, "vigencia en minutos (0 = JWT_EXPIRATION_MINUTES)")
	flag.Parse()

	if *user == "" {
		fmt.Fprintln(os.Stderr, "falta -user")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	exp := cfg.JWT.Expiration
	if *minutes > 0 {
		exp = *minutes
	}

	tok, err := jwt.Generate(cfg.JWT.Secret, *user, *role, cfg.JWT.Issuer, exp)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Generar token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
