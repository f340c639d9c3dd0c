package gateway

import "math"

func dbmToLinear(dbm float64) float64 { return math.Pow(10, dbm/10) }
