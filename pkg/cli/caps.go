package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/pagedriver/pkg/capability"
)

var capsCommand = &cli.Command{
	Name:  "caps",
	Usage: "Print the capabilities for the configured platform",
	Description: `Build the capability set from the configuration and print it as YAML,
in the order it is sent to the server. Nothing is contacted.

Examples:
  pagedriver caps
  pagedriver --platform ios caps --w3c`,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "w3c",
			Usage: "Print the W3C alwaysMatch object (appium: prefixes)",
		},
	},
	Action: printCapabilities,
}

func printCapabilities(c *cli.Context) error {
	cfg, err := loadConfig(flags{c})
	if err != nil {
		return err
	}
	set, err := capability.Build(cfg)
	if err != nil {
		return err
	}

	doc := capsNode(set, c.Bool("w3c"))
	enc := yaml.NewEncoder(c.App.Writer)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode capabilities: %w", err)
	}
	return enc.Close()
}

// capsNode renders set as a YAML mapping that keeps the set's order.
func capsNode(set capability.Set, w3c bool) *yaml.Node {
	m := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range set.Names() {
		v, _ := set.Get(name)
		key := name
		if w3c && name != capability.PlatformName {
			key = "appium:" + name
		}
		value := &yaml.Node{}
		if err := value.Encode(v); err != nil {
			continue
		}
		m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, value)
	}
	if !w3c {
		return m
	}
	return &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
		{Kind: yaml.ScalarNode, Value: "capabilities"},
		{Kind: yaml.MappingNode, Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Value: "alwaysMatch"},
			m,
		}},
	}}
}
