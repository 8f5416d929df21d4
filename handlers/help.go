package handlers

import (
	"github.com/bwmarrin/discordgo"

	"kaisan-bot/utils"
)

const helpText = "**使い方**\n" +
	"`@kaisan [対象] [時刻]` でボイスチャンネルの解散を予約します。\n\n" +
	"**対象**\n" +
	"`me` / `私` … 自分だけ\n" +
	"`all` / `全員` / `みんな` … 参加者全員\n" +
	"`@メンション ...` … 指定したメンバー\n" +
	"省略した場合は全員が対象になります。\n\n" +
	"**時刻**\n" +
	"`after 30min` / `30分後` … 指定時間後\n" +
	"`within 1hour` / `1時間以内` … 今から指定時間までのランダムな時刻\n" +
	"`at 23:30` / `23時半` / `明日の1時` … 指定時刻\n" +
	"`by 23:00` / `23時まで` … 今から指定時刻までのランダムな時刻\n" +
	"`now` / `今すぐ` … 即時\n" +
	"末尾に `remind 10,5` を付けると通知タイミングを上書きできます。\n\n" +
	"**サブコマンド**\n" +
	"`cancel <id>` … 予約のキャンセル\n" +
	"`show-setting` … 現在の設定の表示\n" +
	"`timezone <name>` … タイムゾーンの設定\n" +
	"`require-permission <true|false>` … 他人を解散する際の権限チェック\n" +
	"`remind-random <true|false>` … ランダム解散時の事前通知\n" +
	"`add-reminder <分>` / `remove-reminder <分>` … 事前通知タイミングの追加・削除\n" +
	"`status` … 稼働状況の表示"

func handleHelp(s *discordgo.Session, m *discordgo.MessageCreate) {
	utils.Reply(s, m.ChannelID, helpText)
}
