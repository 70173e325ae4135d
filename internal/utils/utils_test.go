package utils

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckPortConnectable(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port

	assert.True(t, CheckPortConnectable(port, 0))
	assert.False(t, CheckPortListenable(port))

	l.Close()
	assert.False(t, CheckPortConnectable(port, 0))
	assert.False(t, CheckPortConnectable(0, 0))
}

func TestGetCommandLine(t *testing.T) {
	data := struct {
		Script string
		Title  string
	}{"/tmp/run.sh", "blog"}

	cmd, args, err := GetCommandLine("gnome-terminal", []string{"--title={{.Title}}", "--", "bash", "{{.Script}}"}, data)
	require.NoError(t, err)
	assert.Equal(t, "gnome-terminal", cmd)
	assert.Equal(t, []string{"--title=blog", "--", "bash", "/tmp/run.sh"}, args)

	_, _, err = GetCommandLine("x", []string{"{{.Missing"}, data)
	assert.Error(t, err)
}
