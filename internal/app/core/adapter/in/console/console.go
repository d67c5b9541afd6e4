// Package console 提供互動式選單，操作流程與訊息沿用原本的櫃台程式
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/usecase"
)

const menu = `
1.Create Account
2.Deposit
3.Withdraw
4.Display All
5.Exit
Enter choice: `

var (
	okColor   = color.New(color.FgGreen)
	failColor = color.New(color.FgRed)
)

// errExit 使用者選擇離開
var errExit = errors.New("exit")

// Console 以空白分隔的 token 讀取輸入 (與原程式相同)，因此可一次貼上多個參數
type Console struct {
	core   *usecase.CoreUseCase
	in     *bufio.Scanner
	out    io.Writer
	prompt bool
}

// Option Console 配置選項
type Option func(*Console)

// WithoutPrompt 不輸出選單與提示 (用於腳本輸入)
func WithoutPrompt() Option {
	return func(c *Console) {
		c.prompt = false
	}
}

func New(core *usecase.CoreUseCase, in io.Reader, out io.Writer, opts ...Option) *Console {
	scanner := bufio.NewScanner(in)
	scanner.Split(bufio.ScanWords)
	c := &Console{
		core:   core,
		in:     scanner,
		out:    out,
		prompt: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run 執行選單迴圈，直到選擇 5、輸入結束或 ctx 取消
// 帳本錯誤只會印出訊息並繼續，只有讀取輸入失敗才會回傳錯誤
func (c *Console) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.print(menu)
		choice, ok := c.next()
		if !ok {
			return c.in.Err()
		}

		var err error
		switch choice {
		case "1":
			err = c.createAccount(ctx)
		case "2":
			err = c.deposit(ctx)
		case "3":
			err = c.withdraw(ctx)
		case "4":
			err = c.displayAll(ctx)
		case "5":
			return nil
		default:
			c.fail("Invalid Choice.")
		}
		if errors.Is(err, errExit) {
			return c.in.Err()
		}
		if err != nil {
			c.fail(Message(err))
		}
	}
}

func (c *Console) createAccount(ctx context.Context) error {
	c.print("Enter AccNo Name Balance: ")
	id, err := c.nextInt64()
	if err != nil {
		return err
	}
	name, ok := c.next()
	if !ok {
		return errExit
	}
	balance, err := c.nextDecimal()
	if err != nil {
		return err
	}
	if _, err := c.core.CreateAccount(ctx, id, name, balance); err != nil {
		return err
	}
	c.ok("Account Created.")
	return nil
}

func (c *Console) deposit(ctx context.Context) error {
	id, amount, err := c.readIDAndAmount(ctx)
	if err != nil {
		return err
	}
	if _, err := c.core.Deposit(ctx, id, amount); err != nil {
		return err
	}
	c.ok("Amount Deposited.")
	return nil
}

func (c *Console) withdraw(ctx context.Context) error {
	id, amount, err := c.readIDAndAmount(ctx)
	if err != nil {
		return err
	}
	if _, err := c.core.Withdraw(ctx, id, amount); err != nil {
		return err
	}
	c.ok("Amount Withdrawn.")
	return nil
}

// readIDAndAmount 先確認帳戶存在才詢問金額，與原程式的流程一致
func (c *Console) readIDAndAmount(ctx context.Context) (int64, decimal.Decimal, error) {
	c.print("Enter AccNo: ")
	id, err := c.nextInt64()
	if err != nil {
		return 0, decimal.Zero, err
	}
	if _, err := c.core.GetAccount(ctx, id); err != nil {
		return 0, decimal.Zero, err
	}
	c.print("Enter Amount: ")
	amount, err := c.nextDecimal()
	if err != nil {
		return 0, decimal.Zero, err
	}
	return id, amount, nil
}

func (c *Console) displayAll(ctx context.Context) error {
	for acc, err := range c.core.ListAccounts(ctx) {
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%d  %s  Balance: %s\n", acc.ID, acc.Owner, acc.Balance.String())
	}
	return nil
}

// errInvalidInput 輸入無法解析
var errInvalidInput = errors.New("invalid input")

func (c *Console) next() (string, bool) {
	if !c.in.Scan() {
		return "", false
	}
	return c.in.Text(), true
}

func (c *Console) nextInt64() (int64, error) {
	tok, ok := c.next()
	if !ok {
		return 0, errExit
	}
	v, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, errInvalidInput
	}
	return v, nil
}

func (c *Console) nextDecimal() (decimal.Decimal, error) {
	tok, ok := c.next()
	if !ok {
		return decimal.Zero, errExit
	}
	v, err := decimal.NewFromString(tok)
	if err != nil {
		return decimal.Zero, errInvalidInput
	}
	return v, nil
}

func (c *Console) print(s string) {
	if c.prompt {
		fmt.Fprint(c.out, s)
	}
}

func (c *Console) ok(msg string) {
	okColor.Fprintln(c.out, msg)
}

func (c *Console) fail(msg string) {
	failColor.Fprintln(c.out, msg)
}

// Message 將錯誤轉成櫃台訊息
func Message(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientBalance):
		return "Insufficient Balance."
	case errors.Is(err, domain.ErrAccountNotFound):
		return "Account Not Found."
	case errors.Is(err, domain.ErrDuplicateID):
		return "Account Already Exists."
	case errors.Is(err, domain.ErrInvalidAmount):
		return "Invalid Amount."
	case errors.Is(err, domain.ErrLedgerFull):
		return "Bank Full."
	case errors.Is(err, errInvalidInput):
		return "Invalid Input."
	default:
		return "Error: " + err.Error()
	}
}
