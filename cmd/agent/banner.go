package main

import (
	"fmt"
	"runtime"

	"github.com/benmeehan/fleet-agent/internal/service_registry"
	"github.com/benmeehan/fleet-agent/internal/utils"
	"github.com/pterm/pterm"
	"github.com/shirou/gopsutil/host"
)

func printBanner(config *utils.Config, agent *service_registry.Agent) {
	platform := fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
	hostname := "unknown"
	if info, err := host.Info(); err == nil {
		hostname = info.Hostname
		platform = fmt.Sprintf("%s %s (%s/%s)", info.Platform, info.PlatformVersion, runtime.GOOS, runtime.GOARCH)
	}

	interval := config.Heartbeat.Interval.String()
	if config.Heartbeat.FollowServerPolicy {
		interval += " (server policy may override)"
	}

	pterm.DefaultSection.Println("Fleet Agent " + version)
	_ = pterm.DefaultTable.WithData(pterm.TableData{
		{"Agent", agent.Identity.GetAgentID()},
		{"Service", config.Service.URL},
		{"Auth", config.Auth.Mode},
		{"Interval", interval},
		{"Host", hostname},
		{"Platform", platform},
		{"Metrics source", agent.Sampler.Platform()},
	}).Render()
}
