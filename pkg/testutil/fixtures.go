package testutil

import (
	"bytes"
	"fmt"
	"math/rand"
)

// PatientDescription is a small Patient schema used across tests
const PatientDescription = `{"type":"object","properties":{"id":{"type":"string"},"birthDate":{"type":"string"}}}`

// FullPatientDescription exercises nested structs, lists, dates and
// required fields
const FullPatientDescription = `{
  "type": "object",
  "required": ["id"],
  "properties": {
    "id": {"type": "string"},
    "active": {"type": "boolean"},
    "gender": {"type": "string"},
    "birthDate": {"type": "string", "format": "date"},
    "multipleBirthInteger": {"type": "integer", "format": "int32"},
    "meta": {
      "type": "object",
      "properties": {
        "versionId": {"type": "string"},
        "lastUpdated": {"type": "string", "format": "date-time"}
      }
    },
    "name": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "family": {"type": "string"},
          "given": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`

var (
	families = []string{"Smith", "Jones", "Garcia", "Nguyen", "Okafor", "Kowalski"}
	givens   = []string{"Alex", "Sam", "Robin", "Jordan", "Kim", "Taylor"}
	genders  = []string{"female", "male", "other", "unknown"}
)

// Patients returns n newline-delimited documents conforming to
// FullPatientDescription. The output depends only on n and seed.
func Patients(n int, seed int64) []byte {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic fixtures
	var buf bytes.Buffer
	for i := 0; i < n; i++ {
		fmt.Fprintf(&buf,
			`{"id":"patient-%06d","active":%t,"gender":%q,"birthDate":"%04d-%02d-%02d",`+
				`"multipleBirthInteger":%d,"meta":{"versionId":"%d","lastUpdated":"2024-01-%02dT10:00:00Z"},`+
				`"name":[{"family":%q,"given":[%q,%q]}]}`+"\n",
			i,
			rng.Intn(2) == 0,
			genders[rng.Intn(len(genders))],
			1930+rng.Intn(90), 1+rng.Intn(12), 1+rng.Intn(28),
			rng.Intn(3),
			1+rng.Intn(5), 1+rng.Intn(28),
			families[rng.Intn(len(families))],
			givens[rng.Intn(len(givens))], givens[rng.Intn(len(givens))])
	}
	return buf.Bytes()
}
