package trafficlight

import (
	"time"

	"github.com/alecthomas/kong"
)

var Version = "dev"

type CLI struct {
	Debug   bool             `help:"debug mode" short:"d" default:"false"`
	Version kong.VersionFlag `help:"show version"`

	Run  RunCmd  `cmd:"" default:"withargs" help:"run a traffic light"`
	Wait WaitCmd `cmd:"" help:"wait until a running traffic light reaches a phase"`
}

type RunCmd struct {
	Config string `help:"config file path or URL" short:"c" env:"TRAFFICLIGHT_CONFIG"`
}

type WaitCmd struct {
	URL      string        `help:"responder URL" short:"u" default:"http://localhost:8080"`
	Phase    Phase         `help:"phase to wait for (red or green)" short:"p" default:"green"`
	Timeout  time.Duration `help:"give up after this duration (0 waits forever)" short:"t" default:"0s"`
	Interval time.Duration `help:"retry interval on connection errors" default:"1s"`
}
