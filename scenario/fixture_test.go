package scenario_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pagopa/anonymizer-plt/scenario"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFixtures(t *testing.T) {
	f := scenario.DefaultFixtures()
	require.Len(t, f, 1)

	assert.Equal(t, "mixed_pii", f[0].Name)
	assert.Equal(t, "Multa per Mario Rossi il giorno 12/07/2025 alle ore 11:00, codice fiscale GTRQWF12L23B157A "+
		"e carta identita n. AA00000AA, domiciliato in Piazza San Pietro n. 35. Pagato attraverso iban "+
		"IT47J0990650025128761820997 per autovettura targata XX000XX. Contatti numero telefonico 3313516333 "+
		"ed email test@pagopa.it. Per assistenza andare sul sito web www.test.it", f[0].Input)
	assert.Equal(t, "Multa per <PERSON> il giorno <ANONYMIZED> alle ore 11:00, codice fiscale <FISCAL_CODE> "+
		"e carta identita n. <ANONYMIZED>, domiciliato in <ADDRESS>. Pagato attraverso iban <ANONYMIZED> "+
		"per autovettura targata <PLATE_NUMBER>. Contatti numero telefonico <PHONE> ed email <EMAIL>. "+
		"Per assistenza andare sul sito web <ANONYMIZED>", f[0].Expected)
}

func TestLoadFixtures(t *testing.T) {
	p := filepath.Join(t.TempDir(), "fixtures.json")
	require.NoError(t, os.WriteFile(p, []byte(`[
		{"name":"person","input":"multa a Mario Rossi","expected":"multa a <PERSON>"},
		{"input":"email test@pagopa.it","expected":"email <EMAIL>"}
	]`), 0o600))

	f, err := scenario.LoadFixtures(p)
	require.NoError(t, err)
	require.Len(t, f, 2)
	assert.Equal(t, "person", f[0].Name)
	assert.Equal(t, "fixture_1", f[1].Name)

	_, err = scenario.LoadFixtures(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestParseFixtures_invalid(t *testing.T) {
	_, err := scenario.ParseFixtures([]byte(`[]`))
	assert.ErrorIs(t, err, scenario.ErrNoFixtures)

	_, err = scenario.ParseFixtures([]byte(`{"name":"x"}`))
	assert.Error(t, err)
}
