package tre

import (
	"votolocal-backend/lib/telemetry"
)

var tracer = telemetry.Tracer("votolocal.lib.scrapers.tre")
