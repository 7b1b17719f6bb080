package cartshell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/RoyceAzure/lab/storefront/internal/cart"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/shopspring/decimal"
)

const usage = `commands:
  login <user_id>
  logout
  add <item_id> <price> <quantity> [name]
  set <item_id> <quantity>
  remove <item_id>
  clear
  show
  quit`

/*
Shell 以文字指令操作購物車, 一行一個指令
身分切換直接交給 Session, 匿名購物車不會帶到登入後
指令錯誤只輸出訊息, 不中斷
*/
type Shell struct {
	session *cart.Session
	out     io.Writer
}

func NewShell(session *cart.Session, out io.Writer) *Shell {
	return &Shell{session: session, out: out}
}

// Run 讀到 EOF / quit / ctx 結束為止, 匿名購物車一開始就載入
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	if _, err := s.session.Load(ctx, ""); err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" {
			return nil
		}
		if err := s.exec(ctx, fields[0], fields[1:]); err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
	return scanner.Err()
}

func (s *Shell) exec(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		if len(args) != 1 {
			return fmt.Errorf("usage: login <user_id>")
		}
		return s.load(ctx, args[0])
	case "logout":
		return s.load(ctx, "")
	case "add":
		if len(args) < 3 {
			return fmt.Errorf("usage: add <item_id> <price> <quantity> [name]")
		}
		price, err := decimal.NewFromString(args[1])
		if err != nil {
			return fmt.Errorf("invalid price %q", args[1])
		}
		qty, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[2])
		}
		item := model.LineItem{ID: args[0], Price: price, Quantity: qty, Name: strings.Join(args[3:], " ")}
		return s.mutate(func(store cart.Store) error { return store.Add(ctx, item) })
	case "set":
		if len(args) != 2 {
			return fmt.Errorf("usage: set <item_id> <quantity>")
		}
		qty, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[1])
		}
		return s.mutate(func(store cart.Store) error { return store.SetQuantity(ctx, args[0], qty) })
	case "remove":
		if len(args) != 1 {
			return fmt.Errorf("usage: remove <item_id>")
		}
		return s.mutate(func(store cart.Store) error { return store.Remove(ctx, args[0]) })
	case "clear":
		return s.mutate(func(store cart.Store) error { return store.Clear(ctx) })
	case "show":
		store := s.session.Store()
		if store == nil {
			return cart.ErrStoreClosed
		}
		s.print(store.Cart())
		return nil
	case "help":
		fmt.Fprintln(s.out, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (s *Shell) load(ctx context.Context, userID string) error {
	c, err := s.session.Load(ctx, userID)
	if err != nil {
		return err
	}
	s.print(c)
	return nil
}

func (s *Shell) mutate(fn func(store cart.Store) error) error {
	store := s.session.Store()
	if store == nil {
		return cart.ErrStoreClosed
	}
	if err := fn(store); err != nil {
		return err
	}
	s.print(store.Cart())
	return nil
}

func (s *Shell) print(c model.Cart) {
	user := c.UserID
	if user == "" {
		user = "anonymous"
	}
	fmt.Fprintf(s.out, "cart user=%s items=%d subtotal=%s\n", user, len(c.Items), c.Subtotal().StringFixed(2))
	for _, item := range c.Items {
		fmt.Fprintf(s.out, "  %s x%d @%s %s\n", item.ID, item.Quantity, item.Price.StringFixed(2), item.Name)
	}
}
