package main

import (
	"testing"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextEnvFieldCollectsValues(t *testing.T) {
	m := initialModel()
	m.step = stepEnv

	next, cmd := m.nextEnvField("token")
	m = next.(model)
	assert.Nil(t, cmd)
	next, _ = m.nextEnvField("")
	m = next.(model)
	assert.Equal(t, fieldAdminPassword, m.envField)
	assert.Equal(t, textinput.EchoPassword, m.textInput.EchoMode)

	next, cmd = m.nextEnvField("hunter2")
	m = next.(model)
	require.NotNil(t, cmd)
	assert.Equal(t, fieldDone, m.envField)

	content := m.envFileContent()
	assert.Contains(t, content, "DATABASE_URL="+localDBURL)
	assert.Contains(t, content, "DISCORD_TOKEN=token\n")
	assert.Contains(t, content, "DISCORD_GUILD_ID=\n")
	assert.Contains(t, content, "ADMIN_PASSWORD=hunter2\n")
}

func TestStepTable(t *testing.T) {
	require.Len(t, steps, int(stepComplete)+1)
	assert.Nil(t, steps[stepEnv].run)
	assert.NotNil(t, steps[stepSchema].run)
	assert.Contains(t, initialModel().renderProgress(), "Step 1 of 6: Docker")
}

