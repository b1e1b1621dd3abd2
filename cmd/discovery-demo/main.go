// Command discovery-demo runs the UDP peer-discovery service standalone and
// logs every peer it sees, for testing multi-instance presence announcement
// on a LAN without the rest of the capture pipeline.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lmshao/remote-desk/pkg/discovery"
)

func main() {
	serviceType := flag.String("type", "remote-desk", "discovery service type tag")
	port := flag.Int("port", 8090, "advertised port to announce")
	flag.Parse()

	svc := discovery.New(discovery.Config{
		Type:           *serviceType,
		AdvertisedPort: *port,
		Version:        "1",
	})
	svc.SetListener(func(info discovery.Info) {
		fmt.Printf("peer seen: id=%d ip=%s port=%d type=%s version=%s\n",
			info.ID, info.IP, info.Port, info.Type, info.Version)
	})

	if err := svc.Start(); err != nil {
		fmt.Fprintln(os.Stderr, "discovery-demo:", err)
		os.Exit(1)
	}
	fmt.Printf("announcing as id=%d, press Ctrl+C to stop\n", svc.ID())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	svc.Stop()
}
