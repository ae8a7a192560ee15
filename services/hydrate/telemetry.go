package hydrate

import "votolocal-backend/lib/telemetry"

var tracer = telemetry.Tracer("votolocal.services.hydrate")
