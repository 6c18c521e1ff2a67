package cli

import (
	"context"
	"fmt"
)

type InventoryCmd struct {
	Hosts bool `help:"Print only the host names, one per line."`
}

func (cmd *InventoryCmd) Run(env *Env) error {
	session, err := env.NewSession()
	if err != nil {
		return err
	}

	ctx := context.Background()
	if cmd.Hosts {
		hosts, err := session.Hosts(ctx)
		if err != nil {
			return err
		}

		for _, host := range hosts {
			fmt.Fprintln(env.Stdout, host)
		}
		return nil
	}

	inv, err := session.Inventory(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(env.Stdout, inv.StringIndent("", "  "))
	return nil
}
