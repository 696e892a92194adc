// Command radiodisc browses mDNS for radios advertising a command port.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sdrkit/looptx/internal/mdns"
)

func main() {
	timeout := flag.Int("timeout", 5, "browse time in seconds")
	flag.Parse()

	fmt.Println("===============================================================")
	fmt.Println(" radio discovery")
	fmt.Println("===============================================================")
	fmt.Printf(" Service : %s.local\n", mdns.Service)
	fmt.Printf(" Timeout : %d seconds\n", *timeout)
	fmt.Println("---------------------------------------------------------------")

	start := time.Now()
	hosts, err := mdns.Discover(context.Background(), time.Duration(*timeout)*time.Second)
	elapsed := time.Since(start)

	if err != nil {
		fmt.Fprintf(os.Stderr, "discovery error: %v\n", err)
		os.Exit(1)
	}
	if len(hosts) == 0 {
		fmt.Printf("No radios found (%s)\n", elapsed.Truncate(time.Millisecond))
		return
	}

	fmt.Printf("Discovered %d radio(s) in %s\n", len(hosts), elapsed.Truncate(time.Millisecond))
	fmt.Println("===============================================================")

	for i, h := range hosts {
		fmt.Printf(" Radio #%d\n", i+1)
		fmt.Println("---------------------------------------------------------------")
		fmt.Printf(" Instance : %s\n", h.Instance)
		fmt.Printf(" Hostname : %s\n", h.Hostname)
		fmt.Printf(" Port     : %d\n", h.Port)

		fmt.Println(" Addresses:")
		if len(h.Addresses) == 0 {
			fmt.Println("   <none>")
		} else {
			for _, ip := range h.Addresses {
				fmt.Printf("   - %s\n", ip.String())
			}
		}

		fmt.Println(" TXT records:")
		if len(h.TXT) == 0 {
			fmt.Println("   <none>")
		} else {
			for _, txt := range h.TXT {
				fmt.Printf("   - %s\n", txt)
			}
		}

		fmt.Printf(" Command endpoint: udp://%s\n", h.Addr())
		fmt.Println("===============================================================")
	}
}
