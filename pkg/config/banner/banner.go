package banner

import (
	"fmt"

	"yappin/pkg/config"
)

const banner = `
██╗   ██╗ █████╗ ██████╗ ██████╗ ██╗███╗   ██╗██╗
╚██╗ ██╔╝██╔══██╗██╔══██╗██╔══██╗██║████╗  ██║╚██╝
 ╚████╔╝ ███████║██████╔╝██████╔╝██║██╔██╗ ██║
  ╚██╔╝  ██╔══██║██╔═══╝ ██╔═══╝ ██║██║╚██╗██║
   ██║   ██║  ██║██║     ██║     ██║██║ ╚████║
   ╚═╝   ╚═╝  ╚═╝╚═╝     ╚═╝     ╚═╝╚═╝  ╚═══╝
`

// Print writes the startup banner and a short config summary to stdout.
func Print(cfg *config.Config, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:    %s\n", cfg.Addr())
	fmt.Printf("DB Path:   %s\n", cfg.DBPath)
	if version != "" {
		fmt.Printf("Version:   %s\n", version)
	}
	if len(cfg.Security.APIKeys) == 0 {
		fmt.Println("Security:  OPEN (no API keys configured)")
	} else {
		fmt.Printf("Security:  %d API key(s)\n", len(cfg.Security.APIKeys))
	}
	if cfg.Reconcile.Enabled {
		fmt.Printf("Reconcile: %s\n", cfg.Reconcile.Cron)
	} else {
		fmt.Println("Reconcile: disabled")
	}
	fmt.Println("===============================================================")
}
