package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/questkeeper/internal/cooldown"
	"github.com/dmitrijs2005/questkeeper/internal/models"
	"github.com/dmitrijs2005/questkeeper/internal/services"
)

func TestTimerText(t *testing.T) {
	assert.Equal(t, "21:00:00", timerText(services.View{State: cooldown.Active, Remaining: 21 * time.Hour}, false))
	assert.Equal(t, "00:30:00 !", timerText(services.View{State: cooldown.Active, Remaining: 30 * time.Minute, Urgent: true}, false))
	assert.Equal(t, "READY", timerText(services.View{State: cooldown.Ready}, false))
	assert.Equal(t, "READY", timerText(services.View{State: cooldown.Idle}, true))
	assert.Equal(t, "—", timerText(services.View{State: cooldown.Idle}, false))
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "[....................]   0%", progressBar(0))
	assert.Equal(t, "[##########..........]  50%", progressBar(50))
	assert.Equal(t, "[####################] 100%", progressBar(100))
}

func TestMaskAndIDs(t *testing.T) {
	assert.Equal(t, "-", maskPassword(""))
	assert.Equal(t, "****", maskPassword("päss"))
	assert.Equal(t, "abcdef12", shortID("abcdef1234567890"))
	assert.Equal(t, "abc", shortID("abc"))
	assert.Equal(t, "-", orDash("  "))
	assert.Equal(t, "[x]", checkbox(true))
	assert.Equal(t, "[ ]", checkbox(false))
}

func TestRenderAccounts(t *testing.T) {
	var buf bytes.Buffer
	views := []services.View{
		{
			Account:   models.Account{ID: "0123456789", Username: "hero", Password: "pw", Level: 3, XP: 2500, XPMax: 5000},
			State:     cooldown.Active,
			Remaining: 2 * time.Hour,
		},
		{
			Account: models.Account{ID: "ffff", Level: 1, XPMax: 5000},
			State:   cooldown.Idle,
		},
	}

	require.NoError(t, renderAccounts(&buf, views, map[string]bool{"ffff": true}))
	out := buf.String()

	assert.Contains(t, out, "USERNAME")
	assert.Contains(t, out, "01234567")
	assert.Contains(t, out, "hero")
	assert.Contains(t, out, "**")
	assert.Contains(t, out, "Lv 3")
	assert.Contains(t, out, "2500 / 5000 XP")
	assert.Contains(t, out, "50%")
	assert.Contains(t, out, "[x]")
	assert.Contains(t, out, "02:00:00")
	assert.Contains(t, out, "READY")
}

func TestRenderAccounts_ReadyIsUnchecked(t *testing.T) {
	var buf bytes.Buffer
	views := []services.View{{
		Account: models.Account{ID: "abc", Username: "hero", Level: 1, XPMax: 5000},
		State:   cooldown.Ready,
	}}

	require.NoError(t, renderAccounts(&buf, views, nil))
	out := buf.String()

	assert.Contains(t, out, "READY")
	assert.Contains(t, out, "[ ]")
	assert.NotContains(t, out, "[x]")
}

func TestRenderAccounts_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderAccounts(&buf, nil, nil))
	assert.Contains(t, buf.String(), "No accounts yet")
}

func TestSummaryLine(t *testing.T) {
	assert.Equal(t, "1 / 3 done", summaryLine(services.Summary{Active: 1, Total: 3}))
}
