// Command tcprovision loads an experiment configuration and applies
// (or removes) the sized queuing discipline on the bottleneck
// interface. Applying requires CAP_NET_ADMIN and a linux kernel; on
// other systems use -print and run the tc commands on the router.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/apex/log"
	"github.com/bassosimone/linklab"
)

func main() {
	// parse command line flags
	configPath := flag.String("config", "linklab.yaml", "path to the experiment configuration")
	cleanup := flag.Bool("cleanup", false, "remove the qdiscs instead of applying them")
	printOnly := flag.Bool("print", false, "print the tc commands without applying them")
	topology := flag.Bool("topology", false, "also print the topology description as YAML")
	flag.Parse()

	config, err := linklab.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Fatal("cannot load the configuration")
	}

	plan, err := linklab.NewExperimentPlan(log.Log, config)
	if err != nil {
		log.WithError(err).Fatal("cannot derive the experiment plan")
	}
	log.Infof("run %s: queue %d bytes on %s", plan.RunID,
		plan.Qdisc.QueueLimitBytes, plan.Qdisc.Interface)

	if *topology {
		data := linklab.Must1(plan.Topology.Marshal())
		os.Stdout.Write(data)
	}

	if *printOnly {
		commands := plan.Qdisc.Commands()
		if *cleanup {
			commands = plan.Qdisc.CleanupCommands()
		}
		for _, command := range commands {
			fmt.Println(command)
		}
		return
	}

	if *cleanup {
		if err := plan.Qdisc.Cleanup(log.Log); err != nil {
			log.WithError(err).Fatal("cannot clean up the bottleneck interface")
		}
		return
	}

	if err := plan.Qdisc.Apply(log.Log); err != nil {
		log.WithError(err).Fatal("cannot provision the bottleneck interface")
	}
}
