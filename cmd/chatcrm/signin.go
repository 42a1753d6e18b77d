package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"chatcrm/internal/client/authapi"
	domain "chatcrm/internal/domain/signin"
	"chatcrm/internal/modules/signin"
	"chatcrm/internal/pkg/i18n"
	"chatcrm/internal/pkg/log"
	"chatcrm/internal/pkg/metrics"

	"github.com/spf13/cobra"
)

var (
	signinMethod      string
	signinEmail       string
	signinPassword    string
	signinCountryCode string
	signinPhone       string
	signinBaseURL     string
)

// signinCmd drives the sign-in form controller from the terminal
var signinCmd = &cobra.Command{
	Use:   "signin",
	Short: "Sign in with a password or a one-time code",
	Long: `Sign in against the auth proxy.

Password mode needs --email and --password. OTP mode needs --country-code and
--phone; the code is read from stdin after it has been sent.`,
	RunE: runSignin,
}

func init() {
	signinCmd.Flags().StringVar(&signinMethod, "method", string(domain.MethodPassword), "Login method: password or otp")
	signinCmd.Flags().StringVar(&signinEmail, "email", "", "Email address (password mode)")
	signinCmd.Flags().StringVar(&signinPassword, "password", "", "Password (password mode)")
	signinCmd.Flags().StringVar(&signinCountryCode, "country-code", "+1", "Country code (otp mode)")
	signinCmd.Flags().StringVar(&signinPhone, "phone", "", "10 digit phone number (otp mode)")
	signinCmd.Flags().StringVar(&signinBaseURL, "api", "", "Auth proxy base URL (default SIGNIN_API_BASE_URL)")
}

// terminalNavigator 把跳转打印到终端并通知命令结束
type terminalNavigator struct {
	out  io.Writer
	done chan string
}

func (n *terminalNavigator) Redirect(path string) {
	fmt.Fprintf(n.out, "→ %s\n", path)
	n.done <- path
}

func runSignin(cmd *cobra.Command, args []string) error {
	method, err := domain.ParseLoginMethod(signinMethod)
	if err != nil {
		return err
	}

	baseURL := signinBaseURL
	if baseURL == "" {
		baseURL = cfg.SignIn.APIBaseURL
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	nav := &terminalNavigator{out: out, done: make(chan string, 1)}
	client := authapi.New(baseURL, authapi.WithLogger(log.GetLogger()))

	ctrl := signin.NewController(client, nav,
		signin.WithRedirectDelay(cfg.SignIn.RedirectDelay),
		signin.WithLandingPath(cfg.SignIn.LandingPath),
		signin.WithLanguage(i18n.ParseLanguageCode(cfg.SignIn.Language)),
		signin.WithMetrics(metrics.DefaultSignInMetrics),
	)
	defer ctrl.Close()

	ctrl.SetLoginMethod(method)
	ctrl.SetEmail(signinEmail)
	ctrl.SetPassword(signinPassword)
	ctrl.SetCountryCode(signinCountryCode)
	ctrl.SetPhoneNumber(signinPhone)

	if method == domain.MethodOTP {
		if !ctrl.SendOTP(ctx) {
			printErrors(out, ctrl.Snapshot())
			return errors.New("could not send OTP")
		}
		fmt.Fprintf(out, "OTP sent to %s%s. Enter code: ", signinCountryCode, signinPhone)

		code, err := readLine(ctx, cmd.InOrStdin())
		if err != nil {
			return err
		}
		ctrl.SetOtpCode(code)
	}

	state := ctrl.Submit(ctx)
	snap := ctrl.Snapshot()
	switch state {
	case domain.SubmitSucceeded:
		fmt.Fprintln(out, snap.Banner.Message)
	case domain.SubmitFailed:
		fmt.Fprintln(out, snap.Banner.Message)
		return errors.New("sign-in failed")
	default:
		printErrors(out, snap)
		return errors.New("invalid input")
	}

	select {
	case <-nav.done:
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(cfg.SignIn.RedirectDelay + 5*time.Second):
		return errors.New("redirect timed out")
	}

	if session := ctrl.Session(); session != nil {
		fmt.Fprintf(out, "user=%s email=%s\n", session.UserID, session.Email)
		if !session.ExpiresAt.IsZero() {
			fmt.Fprintf(out, "expires=%s\n", session.ExpiresAt.Format(time.RFC3339))
		}
	}
	return nil
}

func printErrors(w io.Writer, snap signin.Snapshot) {
	fields := make([]string, 0, len(snap.Errors))
	for f := range snap.Errors {
		fields = append(fields, string(f))
	}
	sort.Strings(fields)
	for _, f := range fields {
		fmt.Fprintf(w, "%s: %s\n", f, snap.Errors.Get(domain.Field(f)))
	}
}

// readLine 读取一行，ctx 取消时提前返回
func readLine(ctx context.Context, r io.Reader) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := bufio.NewReader(r).ReadString('\n')
		if errors.Is(err, io.EOF) && line != "" {
			err = nil
		}
		ch <- result{strings.TrimSpace(line), err}
	}()

	select {
	case res := <-ch:
		return res.line, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
