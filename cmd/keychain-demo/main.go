// Command keychain-demo exercises the keychain package end to end: create a
// keychain, add a couple of HDKey-backed key pairs, derive accounts, sign a
// message, then back up and restore under a password and confirm the
// restored keychain matches.
package main

import (
	"fmt"
	"log"

	keychain "github.com/jasony/keychain-core"
	"github.com/jasony/keychain-core/internal/hdkey"
)

func main() {
	kc := keychain.New()

	mnemonic := "grocery belt target explain clay essay focus spatial skull brain measure matrix toward visual protect owner stone scale slim ghost panda exact combine game"
	first, err := kc.AddMultiKeyPair(func() (*hdkey.HDKey, error) {
		return hdkey.FromMnemonic(mnemonic)
	})
	if err != nil {
		log.Fatalf("add first key pair: %v", err)
	}

	second, err := kc.AddMultiKeyPair(hdkey.New)
	if err != nil {
		log.Fatalf("add second key pair: %v", err)
	}

	// AddMultiKeyPair never touches the accounts projection on its own;
	// materializing an account into it is the caller's job.
	account, err := first.AccountAt(0)
	if err != nil {
		log.Fatalf("derive account: %v", err)
	}
	secondAccount, err := second.AccountAt(0)
	if err != nil {
		log.Fatalf("derive second account: %v", err)
	}
	kc.Update(func(s *keychain.KeychainState) {
		s.Accounts = append(s.Accounts, account, secondAccount)
	})

	for _, account := range kc.Accounts() {
		fmt.Printf("account: %s\n", account.Address)
	}

	message := []byte("Hello world!")
	sig, err := first.Sign(account, message)
	if err != nil {
		log.Fatalf("sign: %v", err)
	}
	fmt.Printf("signed %q, DER signature length %d\n", message, len(sig))

	const password = "correct horse battery staple"
	backup, err := kc.Backup(password)
	if err != nil {
		log.Fatalf("backup: %v", err)
	}
	fmt.Printf("backup size: %d bytes\n", len(backup))

	restored, err := keychain.Restore(backup, password)
	if err != nil {
		log.Fatalf("restore: %v", err)
	}

	// Restore unlocks every vault but, like Unlock, never repopulates the
	// accounts projection — read identities back through each KeyPair.
	wantAddresses := []string{account.Address, secondAccount.Address}
	for i, want := range wantAddresses {
		kp, ok := restored.GetKeyPair(i)
		if !ok {
			log.Fatalf("restored key pair %d missing", i)
		}
		ident, err := kp.Identity()
		if err != nil {
			log.Fatalf("restored key pair %d identity: %v", i, err)
		}
		got, err := ident.AccountAt(0)
		if err != nil {
			log.Fatalf("restored key pair %d account: %v", i, err)
		}
		if got.Address != want {
			log.Fatalf("restored key pair %d address mismatch: %s != %s", i, got.Address, want)
		}
	}

	fmt.Println("restored keychain matches original")
}
