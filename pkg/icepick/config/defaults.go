// Package config loads icepick settings from the config file, ICEPICK_*
// environment variables and built-in defaults.
package config

import "time"

// Game and directory defaults.
const (
	DefaultModsDir    = "data/mods"
	DefaultSavesDir   = "data/saves"
	DefaultSDKDataDir = "data/"

	DefaultTargetProcess   = "Titanfall2"
	DefaultReadinessModule = "tier0.dll"
	DefaultSDKModule       = "TTF2SDK.dll"
	DefaultInitExport      = "InitialiseSDK"
	DefaultSteamURL        = "steam://run/1237970"

	DefaultQuietPeriod     = 500 * time.Millisecond
	DefaultPollInterval    = 500 * time.Millisecond
	DefaultTimeout         = 30 * time.Second
	DefaultLauncherTimeout = 60 * time.Second

	DefaultLaunchVia     = LaunchNone
	DefaultRetentionDays = 30
)

// Launch modes for the launch command.
const (
	LaunchDirect = "direct"
	LaunchSteam  = "steam"
	LaunchNone   = "none"
)

// LaunchModes lists every accepted launch.via value.
var LaunchModes = []string{LaunchDirect, LaunchSteam, LaunchNone}
